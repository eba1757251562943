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

package vector

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"

	"seehuhn.de/go/markup/internal/stroke"
)

// maxFormDepth limits the nesting of form XObjects.
const maxFormDepth = 12

type graphicsState struct {
	ctm       matrix.Matrix
	fill      color.Color
	stroke    color.Color
	lineWidth float64
}

type segment struct {
	op  byte // 'm', 'l', 'c' or 'h'
	pts [3]vec.Vec2
}

type painter struct {
	ctx   context.Context
	r     pdf.Getter
	img   *image.RGBA
	ras   *vector.Rasterizer
	state graphicsState
	stack []graphicsState

	// path holds the current path in device coordinates
	path    []segment
	current vec.Vec2
	start   vec.Vec2

	skipped map[string]bool
	count   int
}

func newPainter(ctx context.Context, r pdf.Getter, img *image.RGBA, device matrix.Matrix) *painter {
	b := img.Bounds()
	return &painter{
		ctx: ctx,
		r:   r,
		img: img,
		ras: vector.NewRasterizer(b.Dx(), b.Dy()),
		state: graphicsState{
			ctm:       device,
			fill:      color.Black,
			stroke:    color.Black,
			lineWidth: 1,
		},
		skipped: make(map[string]bool),
	}
}

func (p *painter) run(ops content.Stream, res pdf.Dict, depth int) error {
	inText := false
	for _, op := range ops {
		p.count++
		if p.count%256 == 0 {
			if err := p.ctx.Err(); err != nil {
				return err
			}
		}

		if inText {
			if op.Name == "ET" {
				inText = false
			}
			continue
		}

		args := op.Args
		switch op.Name {
		case "q":
			p.stack = append(p.stack, p.state)
		case "Q":
			if n := len(p.stack); n > 0 {
				p.state = p.stack[n-1]
				p.stack = p.stack[:n-1]
			}
		case "cm":
			if x, ok := numbers(args, 6); ok {
				m := matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
				p.state.ctm = m.Mul(p.state.ctm)
			}
		case "w":
			if x, ok := numbers(args, 1); ok {
				p.state.lineWidth = x[0]
			}

		case "m":
			if x, ok := numbers(args, 2); ok {
				p.moveTo(p.device(x[0], x[1]))
			}
		case "l":
			if x, ok := numbers(args, 2); ok {
				p.lineTo(p.device(x[0], x[1]))
			}
		case "c":
			if x, ok := numbers(args, 6); ok {
				p.curveTo(p.device(x[0], x[1]), p.device(x[2], x[3]), p.device(x[4], x[5]))
			}
		case "v":
			if x, ok := numbers(args, 4); ok {
				p.curveTo(p.current, p.device(x[0], x[1]), p.device(x[2], x[3]))
			}
		case "y":
			if x, ok := numbers(args, 4); ok {
				end := p.device(x[2], x[3])
				p.curveTo(p.device(x[0], x[1]), end, end)
			}
		case "h":
			p.closePath()
		case "re":
			if x, ok := numbers(args, 4); ok {
				p.moveTo(p.device(x[0], x[1]))
				p.lineTo(p.device(x[0]+x[2], x[1]))
				p.lineTo(p.device(x[0]+x[2], x[1]+x[3]))
				p.lineTo(p.device(x[0], x[1]+x[3]))
				p.closePath()
			}

		case "S":
			p.strokePath()
			p.path = p.path[:0]
		case "s":
			p.closePath()
			p.strokePath()
			p.path = p.path[:0]
		// The rasterizer only implements the nonzero winding rule.
		case "f", "F", "f*":
			if op.Name == "f*" {
				p.skipped["even-odd fill"] = true
			}
			p.fillPath()
			p.path = p.path[:0]
		case "B", "B*":
			if op.Name == "B*" {
				p.skipped["even-odd fill"] = true
			}
			p.fillPath()
			p.strokePath()
			p.path = p.path[:0]
		case "b", "b*":
			if op.Name == "b*" {
				p.skipped["even-odd fill"] = true
			}
			p.closePath()
			p.fillPath()
			p.strokePath()
			p.path = p.path[:0]
		case "n":
			p.path = p.path[:0]
		case "W", "W*":
			p.skipped["clipping"] = true

		case "g":
			p.state.fill = colorFromArgs(args, p.state.fill)
		case "G":
			p.state.stroke = colorFromArgs(args, p.state.stroke)
		case "rg", "k", "sc", "scn":
			p.state.fill = colorFromArgs(args, p.state.fill)
		case "RG", "K", "SC", "SCN":
			p.state.stroke = colorFromArgs(args, p.state.stroke)
		case "cs":
			p.state.fill = color.Black
		case "CS":
			p.state.stroke = color.Black

		case "Do":
			if len(args) == 1 {
				if name, ok := args[0].(pdf.Name); ok {
					err := p.drawXObject(name, res, depth)
					if err != nil {
						return err
					}
				}
			}

		case "BT":
			inText = true
			p.skipped["text"] = true
		case "BI", "ID", "EI":
			p.skipped["inline image"] = true
		case "sh":
			p.skipped["shading"] = true
		}
	}
	return nil
}

func (p *painter) device(x, y float64) vec.Vec2 {
	dx, dy := p.state.ctm.Apply(x, y)
	return vec.Vec2{X: dx, Y: dy}
}

func (p *painter) moveTo(v vec.Vec2) {
	p.path = append(p.path, segment{op: 'm', pts: [3]vec.Vec2{v}})
	p.current = v
	p.start = v
}

func (p *painter) lineTo(v vec.Vec2) {
	p.path = append(p.path, segment{op: 'l', pts: [3]vec.Vec2{v}})
	p.current = v
}

func (p *painter) curveTo(c1, c2, end vec.Vec2) {
	p.path = append(p.path, segment{op: 'c', pts: [3]vec.Vec2{c1, c2, end}})
	p.current = end
}

func (p *painter) closePath() {
	if len(p.path) == 0 {
		return
	}
	p.path = append(p.path, segment{op: 'h'})
	p.current = p.start
}

func (p *painter) drawXObject(name pdf.Name, res pdf.Dict, depth int) error {
	xObjects, _ := pdf.GetDict(p.r, res["XObject"])
	stm, err := pdf.GetStream(p.r, xObjects[name])
	if err != nil || stm == nil {
		return nil
	}
	subtype, _ := pdf.GetName(p.r, stm.Dict["Subtype"])
	if subtype != "Form" {
		p.skipped["image"] = true
		return nil
	}
	if depth >= maxFormDepth {
		p.skipped["deeply nested form"] = true
		return nil
	}

	m := matrix.Identity
	if arr, _ := pdf.GetArray(p.r, stm.Dict["Matrix"]); len(arr) == 6 {
		if x, ok := numbers(arr, 6); ok {
			m = matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
		}
	}
	formRes, _ := pdf.GetDict(p.r, stm.Dict["Resources"])
	if formRes == nil {
		formRes = res
	}

	body, err := pdf.DecodeStream(p.r, stm, 0)
	if err != nil {
		return fmt.Errorf("form XObject %s: %w", name, err)
	}
	defer body.Close()
	ops, err := content.ReadStream(body, pdf.GetVersion(p.r), content.Form, &content.Resources{})
	if err != nil {
		return fmt.Errorf("form XObject %s: %w", name, err)
	}

	saved := p.state
	savedDepth := len(p.stack)
	savedPath := p.path
	p.path = nil
	p.state.ctm = m.Mul(p.state.ctm)

	err = p.run(ops, formRes, depth+1)

	p.state = saved
	p.stack = p.stack[:savedDepth]
	p.path = savedPath
	return err
}

func (p *painter) fillPath() {
	if len(p.path) == 0 {
		return
	}
	b := p.img.Bounds()
	p.ras.Reset(b.Dx(), b.Dy())
	open := false
	for _, seg := range p.path {
		switch seg.op {
		case 'm':
			if open {
				p.ras.ClosePath()
			}
			p.ras.MoveTo(float32(seg.pts[0].X), float32(seg.pts[0].Y))
			open = true
		case 'l':
			p.ras.LineTo(float32(seg.pts[0].X), float32(seg.pts[0].Y))
		case 'c':
			p.ras.CubeTo(
				float32(seg.pts[0].X), float32(seg.pts[0].Y),
				float32(seg.pts[1].X), float32(seg.pts[1].Y),
				float32(seg.pts[2].X), float32(seg.pts[2].Y))
		case 'h':
			if open {
				p.ras.ClosePath()
				open = false
			}
		}
	}
	if open {
		p.ras.ClosePath()
	}
	p.ras.Draw(p.img, b, image.NewUniform(p.state.fill), image.Point{})
}

// strokePath draws the flattened path with the current line width.
func (p *painter) strokePath() {
	if len(p.path) == 0 {
		return
	}
	m := p.state.ctm
	scale := math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
	width := p.state.lineWidth * scale

	b := p.img.Bounds()
	p.ras.Reset(b.Dx(), b.Dy())
	for _, poly := range flatten(p.path) {
		stroke.Polyline(p.ras, poly, width)
	}
	p.ras.Draw(p.img, b, image.NewUniform(p.state.stroke), image.Point{})
}

// flatten converts a path into polylines, approximating curves by
// straight line segments.
func flatten(path []segment) [][]vec.Vec2 {
	const curveSteps = 16

	var res [][]vec.Vec2
	var poly []vec.Vec2
	var start vec.Vec2
	flush := func() {
		if len(poly) > 1 {
			res = append(res, poly)
		}
		poly = nil
	}
	for _, seg := range path {
		switch seg.op {
		case 'm':
			flush()
			start = seg.pts[0]
			poly = []vec.Vec2{start}
		case 'l':
			poly = append(poly, seg.pts[0])
		case 'c':
			if len(poly) == 0 {
				continue
			}
			p0 := poly[len(poly)-1]
			for i := 1; i <= curveSteps; i++ {
				poly = append(poly, bezier(p0, seg.pts[0], seg.pts[1], seg.pts[2], float64(i)/curveSteps))
			}
		case 'h':
			if len(poly) > 0 {
				poly = append(poly, start)
				flush()
				poly = []vec.Vec2{start}
			}
		}
	}
	flush()
	return res
}

func bezier(p0, p1, p2, p3 vec.Vec2, t float64) vec.Vec2 {
	s := 1 - t
	return p0.Mul(s * s * s).
		Add(p1.Mul(3 * s * s * t)).
		Add(p2.Mul(3 * s * t * t)).
		Add(p3.Mul(t * t * t))
}

func (p *painter) skippedKinds() []string {
	var kinds []string
	for k := range p.skipped {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// numbers converts the first n operator arguments to float64.
func numbers(args []pdf.Object, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	res := make([]float64, n)
	for i := range n {
		x, ok := number(args[i])
		if !ok {
			return nil, false
		}
		res[i] = x
	}
	return res, true
}

func number(obj pdf.Object) (float64, bool) {
	switch x := obj.(type) {
	case pdf.Integer:
		return float64(x), true
	case pdf.Real:
		return float64(x), true
	default:
		return 0, false
	}
}

// colorFromArgs interprets the numeric arguments of a colour operator as
// a gray, RGB or CMYK colour, depending on their number.  Pattern names and
// other colour spaces leave the colour unchanged.
func colorFromArgs(args []pdf.Object, prev color.Color) color.Color {
	var x []float64
	for _, a := range args {
		v, ok := number(a)
		if !ok {
			return prev
		}
		x = append(x, v)
	}
	switch len(x) {
	case 1:
		return color.Gray{Y: toByte(x[0])}
	case 3:
		return color.RGBA{R: toByte(x[0]), G: toByte(x[1]), B: toByte(x[2]), A: 255}
	case 4:
		return color.CMYK{C: toByte(x[0]), M: toByte(x[1]), Y: toByte(x[2]), K: toByte(x[3])}
	default:
		return prev
	}
}

func toByte(x float64) uint8 {
	return uint8(math.Round(min(max(x, 0), 1) * 255))
}
