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

package stroke

import (
	"image"
	"testing"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"
)

func draw(add func(ras *vector.Rasterizer)) *image.Alpha {
	img := image.NewAlpha(image.Rect(0, 0, 40, 40))
	ras := vector.NewRasterizer(40, 40)
	add(ras)
	ras.Draw(img, img.Bounds(), image.Opaque, image.Point{})
	return img
}

func TestPolyline(t *testing.T) {
	img := draw(func(ras *vector.Rasterizer) {
		Polyline(ras, []vec.Vec2{{X: 5, Y: 20}, {X: 20, Y: 20}, {X: 20, Y: 35}}, 4)
	})
	for _, p := range []image.Point{{10, 20}, {10, 18}, {20, 20}, {21, 30}, {19, 19}} {
		if a := img.AlphaAt(p.X, p.Y).A; a != 255 {
			t.Errorf("pixel %v: alpha %d, want 255", p, a)
		}
	}
	for _, p := range []image.Point{{10, 10}, {10, 25}, {30, 20}, {2, 20}} {
		if a := img.AlphaAt(p.X, p.Y).A; a != 0 {
			t.Errorf("pixel %v: alpha %d, want 0", p, a)
		}
	}
}

func TestThinLine(t *testing.T) {
	img := draw(func(ras *vector.Rasterizer) {
		Polyline(ras, []vec.Vec2{{X: 0, Y: 10.5}, {X: 40, Y: 10.5}}, 0)
	})
	if a := img.AlphaAt(20, 10).A; a != 255 {
		t.Errorf("hairline not drawn: alpha %d", a)
	}
}

func TestPolygonAndFill(t *testing.T) {
	square := []vec.Vec2{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 30, Y: 30}, {X: 10, Y: 30}}

	outline := draw(func(ras *vector.Rasterizer) { Polygon(ras, square, 2) })
	if a := outline.AlphaAt(20, 20).A; a != 0 {
		t.Errorf("outline fills the interior: alpha %d", a)
	}
	for _, p := range []image.Point{{20, 10}, {30, 20}, {20, 29}, {10, 20}} {
		if a := outline.AlphaAt(p.X, p.Y).A; a == 0 {
			t.Errorf("outline pixel %v not drawn", p)
		}
	}

	filled := draw(func(ras *vector.Rasterizer) { Fill(ras, square) })
	if a := filled.AlphaAt(20, 20).A; a != 255 {
		t.Errorf("interior alpha %d, want 255", a)
	}
	if a := filled.AlphaAt(35, 20).A; a != 0 {
		t.Errorf("exterior alpha %d, want 0", a)
	}
}
