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

// Package preview draws annotations over a rendered page.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/markup/annot"
	"seehuhn.de/go/markup/calibrate"
	"seehuhn.de/go/markup/internal/stroke"
	"seehuhn.de/go/markup/raster"
	"seehuhn.de/go/markup/zoom"
)

var (
	// ErrNoFrame is returned when there is no image to draw on.
	ErrNoFrame = errors.New("no raster frame")

	// ErrUnsupportedGeometry is returned for annotations which cannot be
	// drawn.
	ErrUnsupportedGeometry = errors.New("unsupported annotation geometry")
)

// Sizes in base pixels.
const (
	markerRadius    = 6.0
	markerRingWidth = 2.0
	labelOffset     = 6.0
)

// fillAlpha is the opacity of polygon fills.
const fillAlpha = 0x55

// Options control the preview.
type Options struct {
	// Calibration is used for length labels.
	Calibration *calibrate.Scale

	// LabelLengths adds the calibrated length to the labels of all
	// annotations which have [annot.Style.Measure] set.
	LabelLengths bool
}

// Draw returns a copy of the frame's image with the annotations drawn on
// top.  The annotations are given in base space and are scaled to the zoom
// level of the frame.  If proj is nil, [zoom.Default] is used.
func Draw(frame *raster.Frame, proj *zoom.Projection, annotations []annot.Geometry, opt *Options) (*image.RGBA, error) {
	if frame == nil || frame.Image == nil {
		return nil, ErrNoFrame
	}
	if proj == nil {
		proj = zoom.Default
	}
	if opt == nil {
		opt = &Options{}
	}

	b := frame.Image.Bounds()
	img := image.NewRGBA(b)
	draw.Draw(img, b, frame.Image, b.Min, draw.Src)

	c := &canvas{
		img:   img,
		ras:   vector.NewRasterizer(b.Dx(), b.Dy()),
		proj:  proj,
		z:     frame.Zoom,
		scale: proj.ScaleFor(frame.Zoom) / proj.BaseScale(),
	}
	for i, g := range annotations {
		if err := c.draw(g, opt); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return img, nil
}

type canvas struct {
	img   *image.RGBA
	ras   *vector.Rasterizer
	proj  *zoom.Projection
	z     int
	scale float64
}

func (c *canvas) draw(g annot.Geometry, opt *Options) error {
	if g == nil {
		return fmt.Errorf("%w: nil geometry", ErrUnsupportedGeometry)
	}
	style := g.Styling()
	col := rgba(style.StrokeColor(), 0xff)
	width := style.Width() * c.scale

	switch g := g.(type) {
	case *annot.Marker:
		disc := c.circlePoints(g.At, markerRadius)
		c.paint(col, func(ras *vector.Rasterizer) { stroke.Fill(ras, disc) })
		c.paint(color.White, func(ras *vector.Rasterizer) {
			stroke.Polygon(ras, disc, markerRingWidth*c.scale)
		})

	case *annot.Polyline:
		if len(g.Vertices) < 2 {
			return fmt.Errorf("%w: polyline with %d vertices", ErrUnsupportedGeometry, len(g.Vertices))
		}
		pts := c.toViewport(g.Vertices)
		c.paint(col, func(ras *vector.Rasterizer) { stroke.Polyline(ras, pts, width) })

	case *annot.Polygon:
		if len(g.Vertices) < 3 {
			return fmt.Errorf("%w: polygon with %d vertices", ErrUnsupportedGeometry, len(g.Vertices))
		}
		c.shape(c.toViewport(g.Vertices), true, style, width)

	case *annot.Circle:
		if !(g.Radius > 0) {
			return fmt.Errorf("%w: circle with radius %g", ErrUnsupportedGeometry, g.Radius)
		}
		c.shape(c.circlePoints(g.Center, g.Radius), true, style, width)

	case *annot.Cloud:
		if len(g.Outline) < 2 {
			return fmt.Errorf("%w: cloud without outline", ErrUnsupportedGeometry)
		}
		c.shape(c.toViewport(g.Outline), g.Closed, style, width)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}

	text := style.Label
	if opt.LabelLengths && style.Measure && opt.Calibration != nil {
		length := opt.Calibration.Format(annot.Length(g))
		if text == "" {
			text = length
		} else {
			text += " " + length
		}
	}
	if text != "" {
		c.label(annot.Anchor(g), text, col)
	}
	return nil
}

func (c *canvas) shape(pts []vec.Vec2, closed bool, style annot.Style, width float64) {
	col := rgba(style.StrokeColor(), 0xff)
	if !closed {
		c.paint(col, func(ras *vector.Rasterizer) { stroke.Polyline(ras, pts, width) })
		return
	}
	if style.Fill != nil {
		c.paint(rgba(*style.Fill, fillAlpha), func(ras *vector.Rasterizer) { stroke.Fill(ras, pts) })
	}
	c.paint(col, func(ras *vector.Rasterizer) { stroke.Polygon(ras, pts, width) })
}

func (c *canvas) paint(col color.Color, add func(ras *vector.Rasterizer)) {
	b := c.img.Bounds()
	c.ras.Reset(b.Dx(), b.Dy())
	add(c.ras)
	c.ras.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func (c *canvas) label(anchor vec.Vec2, text string, col color.Color) {
	p := c.point(anchor).Add(vec.Vec2{X: labelOffset, Y: -labelOffset})
	b := c.img.Bounds()
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(b.Min.X+int(math.Round(p.X)), b.Min.Y+int(math.Round(p.Y))),
	}
	d.DrawString(text)
}

// point maps a base space point to rasterizer coordinates.
func (c *canvas) point(v vec.Vec2) vec.Vec2 {
	return c.proj.FromBaseSpace(v, c.z)
}

func (c *canvas) toViewport(pts []vec.Vec2) []vec.Vec2 {
	res := make([]vec.Vec2, len(pts))
	for i, v := range pts {
		res[i] = c.point(v)
	}
	return res
}

// circlePoints approximates a circle given in base space by a polygon in
// rasterizer coordinates.
func (c *canvas) circlePoints(center vec.Vec2, radius float64) []vec.Vec2 {
	ctr := c.point(center)
	r := radius * c.scale
	n := max(16, min(256, int(math.Ceil(2*math.Pi*r/2))))
	res := make([]vec.Vec2, n)
	for i := range res {
		phi := 2 * math.Pi * float64(i) / float64(n)
		res[i] = vec.Vec2{X: ctr.X + r*math.Cos(phi), Y: ctr.Y + r*math.Sin(phi)}
	}
	return res
}

func rgba(c annot.Color, alpha uint8) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}
