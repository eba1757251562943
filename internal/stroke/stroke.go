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

// Package stroke adds the outlines of stroked polylines to a
// [vector.Rasterizer].
package stroke

import (
	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"
)

// Polyline adds the outline of poly, stroked with the given line width, to
// ras.  Every segment becomes a quadrilateral and interior vertices get a
// square patch, so that the joints have no gaps.  Lines thinner than one
// pixel are drawn one pixel wide.
//
// All shapes are added with the same orientation, so that the coverage of
// overlapping shapes adds up instead of cancelling.
func Polyline(ras *vector.Rasterizer, poly []vec.Vec2, width float64) {
	if len(poly) < 2 {
		return
	}
	hw := max(width, 1) / 2
	for i := 1; i < len(poly); i++ {
		quad(ras, poly[i-1], poly[i], hw)
	}
	if hw > 1 {
		for _, v := range poly[1 : len(poly)-1] {
			square(ras, v, hw)
		}
	}
}

// Polygon adds the outline of the closed polygon poly, stroked with the
// given line width, to ras.
func Polygon(ras *vector.Rasterizer, poly []vec.Vec2, width float64) {
	if len(poly) < 2 {
		return
	}
	closed := make([]vec.Vec2, 0, len(poly)+1)
	closed = append(closed, poly...)
	closed = append(closed, poly[0])
	Polyline(ras, closed, width)
	if hw := max(width, 1) / 2; hw > 1 {
		square(ras, poly[0], hw)
	}
}

// Fill adds the interior of the closed polygon poly to ras.
func Fill(ras *vector.Rasterizer, poly []vec.Vec2) {
	if len(poly) < 3 {
		return
	}
	ras.MoveTo(float32(poly[0].X), float32(poly[0].Y))
	for _, v := range poly[1:] {
		ras.LineTo(float32(v.X), float32(v.Y))
	}
	ras.ClosePath()
}

func quad(ras *vector.Rasterizer, a, b vec.Vec2, hw float64) {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		return
	}
	n := vec.Vec2{X: -d.Y / l * hw, Y: d.X / l * hw}
	p1, p2, p3, p4 := a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)
	ras.MoveTo(float32(p1.X), float32(p1.Y))
	ras.LineTo(float32(p2.X), float32(p2.Y))
	ras.LineTo(float32(p3.X), float32(p3.Y))
	ras.LineTo(float32(p4.X), float32(p4.Y))
	ras.ClosePath()
}

func square(ras *vector.Rasterizer, c vec.Vec2, hw float64) {
	ras.MoveTo(float32(c.X-hw), float32(c.Y-hw))
	ras.LineTo(float32(c.X-hw), float32(c.Y+hw))
	ras.LineTo(float32(c.X+hw), float32(c.Y+hw))
	ras.LineTo(float32(c.X+hw), float32(c.Y-hw))
	ras.ClosePath()
}
