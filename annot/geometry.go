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

// Package annot defines the annotation geometry attached to a page.
//
// All coordinates are in base space: pixels of the page rendered at zoom
// level 0, with the origin in the top-left corner and y increasing
// downwards.  Geometry values are treated as read-only snapshots once they
// have been handed to a session.
package annot

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/markup/calibrate"
)

// Geometry is one of [*Marker], [*Polyline], [*Polygon], [*Circle] and
// [*Cloud].
type Geometry interface {
	// Points returns the vertices which define the shape.
	// The caller must not modify the returned slice.
	Points() []vec.Vec2

	// Styling returns the style of the annotation.
	Styling() Style

	isGeometry()
}

// Marker is a point marker.
type Marker struct {
	At    vec.Vec2
	Style Style
}

// Polyline is an open path.  A line is a polyline with two points.
type Polyline struct {
	Vertices []vec.Vec2
	Style    Style
}

// Polygon is a closed path.
type Polygon struct {
	Vertices []vec.Vec2
	Style    Style
}

// Circle is a circle given by centre and radius.
type Circle struct {
	Center vec.Vec2
	Radius float64
	Style  Style
}

// Cloud is a revision cloud.
//
// Source holds the vertices drawn by the user, Outline the generated
// scalloped path.  Outline is drawn as a closed path if Closed is set,
// and as an open path otherwise.
type Cloud struct {
	Source  []vec.Vec2
	Outline []vec.Vec2
	Closed  bool
	Style   Style
}

// Points implements the [Geometry] interface.
func (m *Marker) Points() []vec.Vec2 { return []vec.Vec2{m.At} }

// Points implements the [Geometry] interface.
func (p *Polyline) Points() []vec.Vec2 { return p.Vertices }

// Points implements the [Geometry] interface.
func (p *Polygon) Points() []vec.Vec2 { return p.Vertices }

// Points implements the [Geometry] interface.
func (c *Circle) Points() []vec.Vec2 { return []vec.Vec2{c.Center} }

// Points implements the [Geometry] interface.
// For clouds, this is the generated outline.
func (c *Cloud) Points() []vec.Vec2 { return c.Outline }

// Styling implements the [Geometry] interface.
func (m *Marker) Styling() Style { return m.Style }

// Styling implements the [Geometry] interface.
func (p *Polyline) Styling() Style { return p.Style }

// Styling implements the [Geometry] interface.
func (p *Polygon) Styling() Style { return p.Style }

// Styling implements the [Geometry] interface.
func (c *Circle) Styling() Style { return c.Style }

// Styling implements the [Geometry] interface.
func (c *Cloud) Styling() Style { return c.Style }

func (*Marker) isGeometry()   {}
func (*Polyline) isGeometry() {}
func (*Polygon) isGeometry()  {}
func (*Circle) isGeometry()   {}
func (*Cloud) isGeometry()    {}

// Bounds returns the bounding box of a geometry in base space,
// not including the line width.
func Bounds(g Geometry) rect.Rect {
	if c, ok := g.(*Circle); ok {
		return rect.Rect{
			LLx: c.Center.X - c.Radius,
			LLy: c.Center.Y - c.Radius,
			URx: c.Center.X + c.Radius,
			URy: c.Center.Y + c.Radius,
		}
	}
	pts := g.Points()
	if len(pts) == 0 {
		return rect.Rect{}
	}
	b := rect.Rect{LLx: pts[0].X, LLy: pts[0].Y, URx: pts[0].X, URy: pts[0].Y}
	for _, p := range pts[1:] {
		b.LLx = min(b.LLx, p.X)
		b.LLy = min(b.LLy, p.Y)
		b.URx = max(b.URx, p.X)
		b.URy = max(b.URy, p.Y)
	}
	return b
}

// Anchor returns the point near which the label of g is placed.  This is
// the first vertex of g; circles use their center and clouds the first
// vertex drawn by the user.
func Anchor(g Geometry) vec.Vec2 {
	if c, ok := g.(*Cloud); ok && len(c.Source) > 0 {
		return c.Source[0]
	}
	pts := g.Points()
	if len(pts) == 0 {
		return vec.Vec2{}
	}
	return pts[0]
}

// Length returns the length of the path traced by g, in base pixels.
// Polygons include their closing edge, circles give their circumference
// and clouds are measured along the vertices the user drew.
func Length(g Geometry) float64 {
	switch g := g.(type) {
	case *Marker:
		return 0
	case *Polyline:
		return calibrate.PolylineLength(g.Vertices, false)
	case *Polygon:
		return calibrate.PolylineLength(g.Vertices, true)
	case *Circle:
		return 2 * math.Pi * g.Radius
	case *Cloud:
		return calibrate.PolylineLength(g.Source, g.Closed)
	}
	return 0
}
