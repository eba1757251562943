// seehuhn.de/go/markup - annotate, measure and export PDF pages
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package raster

import (
	"seehuhn.de/go/markup/logging"
	"seehuhn.de/go/markup/raster/ghostscript"
	"seehuhn.de/go/markup/raster/vector"
)

// DefaultRenderer returns the Ghostscript renderer if the gs command is
// installed, and the built-in vector renderer otherwise.
func DefaultRenderer() Renderer {
	if ghostscript.Available() {
		logging.Logger().Debug("using ghostscript renderer")
		return &ghostscript.Renderer{}
	}
	logging.Logger().Debug("ghostscript not found, using vector renderer")
	return &vector.Renderer{}
}

// RendererByName returns the renderer with the given name:
// "gs" for Ghostscript, "vector" for the built-in renderer, and
// "auto" or "" for [DefaultRenderer].
func RendererByName(name string) (Renderer, bool) {
	switch name {
	case "", "auto":
		return DefaultRenderer(), true
	case "gs", "ghostscript":
		return &ghostscript.Renderer{}, true
	case "vector":
		return &vector.Renderer{}, true
	default:
		return nil, false
	}
}
