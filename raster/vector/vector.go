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

// Package vector is a pure Go page renderer.
//
// The renderer interprets the path construction, path painting, colour
// and graphics state operators of a page's content stream, including
// form XObjects, and rasterises the paths with golang.org/x/image/vector.
// Text, images, shadings and clipping paths are not drawn.  This is
// enough to show line drawings and plans, which is what the page is
// annotated on top of, without depending on an external program.
package vector

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/markup/internal/pdfpage"
	"seehuhn.de/go/markup/logging"
)

// Renderer renders pages without calling external programs.
// The zero value is ready to use.
type Renderer struct{}

// RenderPage renders page pageIndex (0-based) of the PDF file in data.
func (vr *Renderer) RenderPage(ctx context.Context, data []byte, pageIndex int, dpi float64) (image.Image, error) {
	if !(dpi > 0) {
		return nil, fmt.Errorf("vector: invalid resolution %g", dpi)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, err
	}
	info, err := pdfpage.Read(r, pageIndex)
	if err != nil {
		return nil, err
	}

	scale := dpi / 72
	w, h := info.Size()
	width := max(1, int(math.Ceil(w*scale-1e-6)))
	height := max(1, int(math.Ceil(h*scale-1e-6)))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	body, err := pagetree.ContentStream(r, info.Dict)
	if err != nil {
		return nil, err
	}
	ops, err := content.ReadStream(body, pdf.GetVersion(r), content.Page, &content.Resources{})
	if err != nil {
		return nil, err
	}
	res, _ := pdf.GetDict(r, info.Dict["Resources"])

	p := newPainter(ctx, r, img, info.ToDisplay(scale))
	err = p.run(ops, res, 0)
	if err != nil {
		return nil, err
	}
	if len(p.skipped) > 0 {
		logging.Logger().Debug("vector renderer skipped content",
			"page", pageIndex, "kinds", p.skippedKinds())
	}
	return img, nil
}
