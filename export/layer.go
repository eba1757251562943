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

package export

import (
	"fmt"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"

	"seehuhn.de/go/markup/annot"
	"seehuhn.de/go/markup/internal/pdfpage"
)

// Sizes in base pixels.
const (
	markerRadius    = 6.0
	markerRingWidth = 2.0
	labelSize       = 12.0
	labelOffset     = 6.0
)

// fontName is the name of the label font in the layer's resources.
const fontName pdf.Name = "F1"

// bezierCircle is the control point distance for a quarter circle of
// radius 1.
const bezierCircle = 0.5522847498307936

// layerData is the annotation layer of one page, in default user space.
type layerData struct {
	ops      content.Stream
	usesFont bool
}

type layerBuilder struct {
	toUser matrix.Matrix
	k      float64
	opt    *Options
	enc    *encoding.Encoder

	layerData
}

func buildLayer(info *pdfpage.Info, k float64, annotations []annot.Geometry, opt *Options) (*layerData, error) {
	b := &layerBuilder{
		toUser: info.FromDisplay(1 / k),
		k:      k,
		opt:    opt,
		enc:    encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}
	for i, g := range annotations {
		if err := b.draw(g); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return &b.layerData, nil
}

func (b *layerBuilder) draw(g annot.Geometry) error {
	if g == nil {
		return fmt.Errorf("%w: nil geometry", ErrUnsupportedGeometry)
	}
	style := g.Styling()

	b.op(content.OpPushGraphicsState)
	b.setColor(content.OpSetStrokeRGB, style.StrokeColor())
	b.op(content.OpSetLineWidth, b.k*style.Width())
	b.emit(content.OpSetLineCap, pdf.Integer(1))
	b.emit(content.OpSetLineJoin, pdf.Integer(1))

	switch g := g.(type) {
	case *annot.Marker:
		b.setColor(content.OpSetFillRGB, style.StrokeColor())
		b.op(content.OpSetStrokeRGB, 1, 1, 1)
		b.op(content.OpSetLineWidth, b.k*markerRingWidth)
		b.circle(g.At, markerRadius)
		b.op(content.OpFillAndStroke)

	case *annot.Polyline:
		if len(g.Vertices) < 2 {
			return fmt.Errorf("%w: polyline with %d vertices", ErrUnsupportedGeometry, len(g.Vertices))
		}
		b.path(g.Vertices, false)
		b.op(content.OpStroke)

	case *annot.Polygon:
		if len(g.Vertices) < 3 {
			return fmt.Errorf("%w: polygon with %d vertices", ErrUnsupportedGeometry, len(g.Vertices))
		}
		b.closedShape(g.Vertices, true, style)

	case *annot.Circle:
		if !(g.Radius > 0) {
			return fmt.Errorf("%w: circle with radius %g", ErrUnsupportedGeometry, g.Radius)
		}
		if style.Fill != nil {
			b.setColor(content.OpSetFillRGB, *style.Fill)
		}
		b.circle(g.Center, g.Radius)
		if style.Fill != nil {
			b.op(content.OpFillAndStroke)
		} else {
			b.op(content.OpStroke)
		}

	case *annot.Cloud:
		if len(g.Outline) < 2 {
			return fmt.Errorf("%w: cloud without outline", ErrUnsupportedGeometry)
		}
		b.closedShape(g.Outline, g.Closed, style)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
	}

	if text := b.labelText(g); text != "" {
		b.label(annot.Anchor(g), text, style.StrokeColor())
	}

	b.op(content.OpPopGraphicsState)
	return nil
}

// closedShape draws a polygon outline.  Open outlines are only stroked.
func (b *layerBuilder) closedShape(pts []vec.Vec2, closed bool, style annot.Style) {
	if !closed {
		b.path(pts, false)
		b.op(content.OpStroke)
		return
	}
	if style.Fill != nil {
		b.setColor(content.OpSetFillRGB, *style.Fill)
	}
	b.path(pts, true)
	if style.Fill != nil {
		b.op(content.OpFillAndStroke)
	} else {
		b.op(content.OpStroke)
	}
}

// user maps a base space point to PDF user space.
func (b *layerBuilder) user(v vec.Vec2) vec.Vec2 {
	x, y := b.toUser.Apply(v.X, v.Y)
	return vec.Vec2{X: x, Y: y}
}

func (b *layerBuilder) path(pts []vec.Vec2, closed bool) {
	p := b.user(pts[0])
	b.op(content.OpMoveTo, p.X, p.Y)
	for _, v := range pts[1:] {
		p = b.user(v)
		b.op(content.OpLineTo, p.X, p.Y)
	}
	if closed {
		b.op(content.OpClosePath)
	}
}

// circle appends a closed circle of the given base space radius to the
// current path, approximated by four Bézier curves.
func (b *layerBuilder) circle(center vec.Vec2, radius float64) {
	c := b.user(center)
	r := radius * b.k
	d := r * bezierCircle
	b.op(content.OpMoveTo, c.X+r, c.Y)
	b.op(content.OpCurveTo, c.X+r, c.Y+d, c.X+d, c.Y+r, c.X, c.Y+r)
	b.op(content.OpCurveTo, c.X-d, c.Y+r, c.X-r, c.Y+d, c.X-r, c.Y)
	b.op(content.OpCurveTo, c.X-r, c.Y-d, c.X-d, c.Y-r, c.X, c.Y-r)
	b.op(content.OpCurveTo, c.X+d, c.Y-r, c.X+r, c.Y-d, c.X+r, c.Y)
	b.op(content.OpClosePath)
}

func (b *layerBuilder) labelText(g annot.Geometry) string {
	style := g.Styling()
	text := style.Label
	if b.opt.LabelLengths && style.Measure && b.opt.Calibration != nil {
		length := b.opt.Calibration.Format(annot.Length(g))
		if text == "" {
			text = length
		} else {
			text += " " + length
		}
	}
	return text
}

// label shows text near the anchor point, upright in display orientation.
func (b *layerBuilder) label(anchor vec.Vec2, text string, col annot.Color) {
	encoded, err := b.enc.String(text)
	if err != nil {
		encoded = text
	}

	pos := b.user(anchor.Add(vec.Vec2{X: labelOffset, Y: -labelOffset}))
	m := b.toUser
	s := math.Hypot(m[0], m[1])
	right := vec.Vec2{X: m[0] / s, Y: m[1] / s}
	up := vec.Vec2{X: -m[2] / s, Y: -m[3] / s}

	b.usesFont = true
	b.op(content.OpTextBegin)
	b.emit(content.OpTextSetFont, fontName, num(labelSize*b.k))
	b.setColor(content.OpSetFillRGB, col)
	b.op(content.OpTextSetMatrix, right.X, right.Y, up.X, up.Y, pos.X, pos.Y)
	b.emit(content.OpTextShow, pdf.String(encoded))
	b.op(content.OpTextEnd)
}

func (b *layerBuilder) setColor(name content.OpName, c annot.Color) {
	b.emit(name,
		pdf.Real(round(float64(c.R)/255, 3)),
		pdf.Real(round(float64(c.G)/255, 3)),
		pdf.Real(round(float64(c.B)/255, 3)))
}

// op appends an operator with numeric arguments, rounded to two decimal
// places.
func (b *layerBuilder) op(name content.OpName, args ...float64) {
	objs := make([]pdf.Object, len(args))
	for i, x := range args {
		objs[i] = num(x)
	}
	b.emit(name, objs...)
}

func (b *layerBuilder) emit(name content.OpName, args ...pdf.Object) {
	b.ops = append(b.ops, content.Operator{Name: name, Args: args})
}

func num(x float64) pdf.Object {
	return pdf.Real(round(x, 2))
}

func round(x float64, digits int) float64 {
	f := math.Pow10(digits)
	r := math.Round(x*f) / f
	if r == 0 {
		return 0 // avoid -0
	}
	return r
}

// write writes the layer as a form XObject covering the visible page area.
func (l *layerData) write(out *pdf.Writer, ref pdf.Reference, bbox pdf.Rectangle) error {
	res := pdf.Dict{}
	if l.usesFont {
		fontRef := out.Alloc()
		err := out.Put(fontRef, pdf.Dict{
			"Type":     pdf.Name("Font"),
			"Subtype":  pdf.Name("Type1"),
			"BaseFont": pdf.Name("Helvetica"),
			"Encoding": pdf.Name("WinAnsiEncoding"),
		})
		if err != nil {
			return err
		}
		res["Font"] = pdf.Dict{fontName: fontRef}
	}
	dict := pdf.Dict{
		"Type":      pdf.Name("XObject"),
		"Subtype":   pdf.Name("Form"),
		"BBox":      &bbox,
		"Resources": res,
	}
	return writeOps(out, ref, dict, l.ops)
}
