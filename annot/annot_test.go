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

package annot

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"#3388ff", Color{0x33, 0x88, 0xff}},
		{"#F00", Color{0xff, 0, 0}},
		{" #000000 ", Color{}},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseColor(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	for _, in := range []string{"3388ff", "#12345", "#gggggg", ""} {
		if _, err := ParseColor(in); !errors.Is(err, ErrInvalidColor) {
			t.Errorf("ParseColor(%q) = %v, want ErrInvalidColor", in, err)
		}
	}
}

func TestDecode(t *testing.T) {
	const input = `[
		{"type": "polygon", "points": [[0, 0], [10, 0], [10, 10]], "stroke": "#ff0000", "fill": "#00ff00", "label": "A"},
		{"type": "line", "points": [[1, 2], [3, 4]], "width": 2, "measure": true},
		{"type": "marker", "points": [[5, 6]]},
		{"type": "circle", "center": [7, 8], "radius": 9},
		{"type": "cloud", "points": [[0, 0], [40, 0], [40, 40]], "closed": false}
	]`
	got, err := Decode(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	red := Color{R: 0xff}
	green := Color{G: 0xff}
	want := []Geometry{
		&Polygon{
			Vertices: []vec.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
			Style:    Style{Stroke: &red, Fill: &green, Label: "A"},
		},
		&Polyline{
			Vertices: []vec.Vec2{{X: 1, Y: 2}, {X: 3, Y: 4}},
			Style:    Style{LineWidth: 2, Measure: true},
		},
		&Marker{At: vec.Vec2{X: 5, Y: 6}},
		&Circle{Center: vec.Vec2{X: 7, Y: 8}, Radius: 9},
		&Cloud{Source: []vec.Vec2{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 40}}},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Decode (-want +got):\n%s", d)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []string{
		`[{"type": "star", "points": [[0, 0]]}]`,
		`[{"type": "polygon", "points": [[0, 0], [1, 1]]}]`,
		`[{"type": "circle", "center": [0, 0]}]`,
		`[{"type": "line", "points": [[0, 0], [1, 1]], "stroke": "red"}]`,
		`{"type": "line"}`,
	}
	for _, in := range cases {
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Errorf("Decode(%s) succeeded", in)
		}
	}

	_, err := Decode(strings.NewReader(cases[0]))
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("unknown type: got %v", err)
	}
}

func TestBounds(t *testing.T) {
	g := &Polygon{Vertices: []vec.Vec2{{X: 5, Y: 1}, {X: -2, Y: 7}, {X: 3, Y: 3}}}
	want := rect.Rect{LLx: -2, LLy: 1, URx: 5, URy: 7}
	if d := cmp.Diff(want, Bounds(g)); d != "" {
		t.Errorf("polygon bounds (-want +got):\n%s", d)
	}

	c := &Circle{Center: vec.Vec2{X: 10, Y: 10}, Radius: 2}
	want = rect.Rect{LLx: 8, LLy: 8, URx: 12, URy: 12}
	if d := cmp.Diff(want, Bounds(c)); d != "" {
		t.Errorf("circle bounds (-want +got):\n%s", d)
	}
}

func TestAnchor(t *testing.T) {
	cases := []struct {
		g    Geometry
		want vec.Vec2
	}{
		{&Marker{At: vec.Vec2{X: 5, Y: 6}}, vec.Vec2{X: 5, Y: 6}},
		{&Polyline{Vertices: []vec.Vec2{{X: 1, Y: 2}, {X: 3, Y: 4}}}, vec.Vec2{X: 1, Y: 2}},
		{&Circle{Center: vec.Vec2{X: 10, Y: 20}, Radius: 5}, vec.Vec2{X: 10, Y: 20}},
		{&Cloud{
			Source:  []vec.Vec2{{X: 7, Y: 8}, {X: 9, Y: 8}},
			Outline: []vec.Vec2{{X: 100, Y: 100}},
		}, vec.Vec2{X: 7, Y: 8}},
		{&Polygon{}, vec.Vec2{}},
	}
	for i, c := range cases {
		if d := cmp.Diff(c.want, Anchor(c.g)); d != "" {
			t.Errorf("%d: anchor (-want +got):\n%s", i, d)
		}
	}
}

func TestStyleDefaults(t *testing.T) {
	var s Style
	if s.StrokeColor() != DefaultStroke {
		t.Errorf("default stroke = %v", s.StrokeColor())
	}
	if s.Width() != DefaultLineWidth {
		t.Errorf("default width = %g", s.Width())
	}
}

func TestLength(t *testing.T) {
	square := []vec.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	cases := []struct {
		g    Geometry
		want float64
	}{
		{&Marker{At: vec.Vec2{X: 5, Y: 5}}, 0},
		{&Polyline{Vertices: square}, 30},
		{&Polygon{Vertices: square}, 40},
		{&Circle{Radius: 1}, 2 * math.Pi},
		{&Cloud{Source: square, Closed: true, Outline: []vec.Vec2{{X: 100}}}, 40},
		{&Cloud{Source: square}, 30},
		{&Polygon{Vertices: square[:2]}, 20},
	}
	for i, c := range cases {
		if got := Length(c.g); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%d: Length = %g, want %g", i, got, c.want)
		}
	}
}
