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

// Package pdfpage reads the geometry of a PDF page: the visible area, the
// rotation and the mapping between default user space and the displayed
// page.
package pdfpage

import (
	"errors"
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// ErrNoMediaBox is returned for pages without a usable /MediaBox.
var ErrNoMediaBox = errors.New("page has no valid MediaBox")

// Info describes the geometry of one page.
type Info struct {
	// Dict is the page dictionary, including inherited attributes.
	// It must not be modified.
	Dict pdf.Dict

	// Box is the visible area of the page in default user space: the crop
	// box, clipped to the media box.
	Box pdf.Rectangle

	// Rotate is the clockwise rotation of the page when displayed,
	// one of 0, 90, 180 and 270.
	Rotate int
}

// Read returns the geometry of page pageIndex (0-based).
func Read(r pdf.Getter, pageIndex int) (*Info, error) {
	_, dict, err := pagetree.GetPage(r, pageIndex)
	if err != nil {
		return nil, err
	}

	media, err := pdf.GetRectangle(r, dict["MediaBox"])
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIndex, err)
	}
	if media == nil || media.IsZero() {
		return nil, fmt.Errorf("page %d: %w", pageIndex, ErrNoMediaBox)
	}
	box := normalize(*media)

	if crop, err := pdf.GetRectangle(r, dict["CropBox"]); err == nil && crop != nil {
		c := normalize(*crop)
		clipped := pdf.Rectangle{
			LLx: max(c.LLx, box.LLx),
			LLy: max(c.LLy, box.LLy),
			URx: min(c.URx, box.URx),
			URy: min(c.URy, box.URy),
		}
		if clipped.URx > clipped.LLx && clipped.URy > clipped.LLy {
			box = clipped
		}
	}
	if !(box.URx > box.LLx && box.URy > box.LLy) {
		return nil, fmt.Errorf("page %d: %w", pageIndex, ErrNoMediaBox)
	}

	rot, _ := pdf.GetInteger(r, dict["Rotate"])
	rotate := ((int(rot) % 360) + 360) % 360
	if rotate%90 != 0 {
		rotate = 0
	}

	return &Info{Dict: dict, Box: box, Rotate: rotate}, nil
}

func normalize(r pdf.Rectangle) pdf.Rectangle {
	return pdf.Rectangle{
		LLx: min(r.LLx, r.URx),
		LLy: min(r.LLy, r.URy),
		URx: max(r.LLx, r.URx),
		URy: max(r.LLy, r.URy),
	}
}

// Size returns the width and height of the displayed page in PDF points,
// after rotation.
func (info *Info) Size() (width, height float64) {
	w := info.Box.URx - info.Box.LLx
	h := info.Box.URy - info.Box.LLy
	if info.Rotate == 90 || info.Rotate == 270 {
		return h, w
	}
	return w, h
}

// ToDisplay returns the matrix which maps default user space to display
// space.  Display space has its origin in the top-left corner of the
// rotated page, the y-axis points down and one PDF point corresponds to
// scale units.
func (info *Info) ToDisplay(scale float64) matrix.Matrix {
	b := info.Box
	s := scale
	switch info.Rotate {
	case 90:
		return matrix.Matrix{0, s, s, 0, -s * b.LLy, -s * b.LLx}
	case 180:
		return matrix.Matrix{-s, 0, 0, s, s * b.URx, -s * b.LLy}
	case 270:
		return matrix.Matrix{0, -s, -s, 0, s * b.URy, s * b.URx}
	default:
		return matrix.Matrix{s, 0, 0, -s, -s * b.LLx, s * b.URy}
	}
}

// FromDisplay returns the inverse of [Info.ToDisplay].
func (info *Info) FromDisplay(scale float64) matrix.Matrix {
	b := info.Box
	t := 1 / scale
	switch info.Rotate {
	case 90:
		return matrix.Matrix{0, t, t, 0, b.LLx, b.LLy}
	case 180:
		return matrix.Matrix{-t, 0, 0, t, b.URx, b.LLy}
	case 270:
		return matrix.Matrix{0, -t, -t, 0, b.URx, b.URy}
	default:
		return matrix.Matrix{t, 0, 0, -t, b.LLx, b.URy}
	}
}
