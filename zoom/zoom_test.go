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

package zoom

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/vec"
)

func TestScaleRatio(t *testing.T) {
	for _, base := range []float64{1, 0.75, 96.0 / 72} {
		p, err := New(&Options{BaseScale: base, MinZoom: -4, MaxZoom: 6})
		if err != nil {
			t.Fatal(err)
		}
		for z1 := -4; z1 <= 6; z1++ {
			for z2 := z1 + 1; z2 <= 6; z2++ {
				got := p.ScaleFor(z2) / p.ScaleFor(z1)
				want := math.Ldexp(1, z2-z1)
				if got != want {
					t.Errorf("base %g: ScaleFor(%d)/ScaleFor(%d) = %g, want %g",
						base, z2, z1, got, want)
				}
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	points := []vec.Vec2{
		{X: 0, Y: 0},
		{X: 1, Y: 1},
		{X: 595.276, Y: 841.89},
		{X: -12.5, Y: 1e4},
		{X: 0.001, Y: 333.3333},
	}
	opt := cmpopts.EquateApprox(1e-6, 0)
	for z := Default.MinZoom(); z <= Default.MaxZoom(); z++ {
		for _, p := range points {
			q := Default.ToBaseSpace(Default.FromBaseSpace(p, z), z)
			if d := cmp.Diff(p, q, opt); d != "" {
				t.Errorf("zoom %d: round trip (-want +got):\n%s", z, d)
			}
			r := Default.FromBaseSpace(Default.ToBaseSpace(p, z), z)
			if d := cmp.Diff(p, r, opt); d != "" {
				t.Errorf("zoom %d: inverse round trip (-want +got):\n%s", z, d)
			}
		}
	}
}

func TestMatrix(t *testing.T) {
	p := vec.Vec2{X: 10, Y: 20}
	for z := -2; z <= 2; z++ {
		x, y := Default.Matrix(z).Apply(p.X, p.Y)
		got := vec.Vec2{X: x, Y: y}
		want := Default.FromBaseSpace(p, z)
		if d := cmp.Diff(want, got); d != "" {
			t.Errorf("zoom %d (-want +got):\n%s", z, d)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ in, out int }{
		{-10, -2}, {-2, -2}, {0, 0}, {2, 2}, {3, 2},
	}
	for _, c := range cases {
		if got := Default.Clamp(c.in); got != c.out {
			t.Errorf("Clamp(%d) = %d, want %d", c.in, got, c.out)
		}
	}
	if Default.Valid(3) || !Default.Valid(-2) {
		t.Error("Valid disagrees with the default range")
	}
}

func TestInvalidOptions(t *testing.T) {
	for _, opt := range []*Options{
		{BaseScale: -1},
		{MinZoom: 2, MaxZoom: 1},
		{BaseScale: math.Inf(1)},
	} {
		if _, err := New(opt); err != ErrInvalidRange {
			t.Errorf("New(%+v) = %v, want ErrInvalidRange", opt, err)
		}
	}
}

func TestDPI(t *testing.T) {
	if got := Default.DPI(0); got != 72 {
		t.Errorf("DPI(0) = %g, want 72", got)
	}
	if got := Default.DPI(2); got != 288 {
		t.Errorf("DPI(2) = %g, want 288", got)
	}
}
