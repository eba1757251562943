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

// Package cloud generates the scalloped outline of a revision cloud.
//
// The input path is resampled at equal arc-length intervals and every
// interval is replaced by a circular arc which bulges away from the
// enclosed area.  Arcs are approximated by short line segments, so the
// result can be used wherever an ordinary polygon or polyline is
// expected.
package cloud

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/markup/annot"
)

// Default values for [Options].
const (
	DefaultBulgeRatio  = 0.18
	DefaultArcSegments = 12
)

// Options control the shape of the generated arcs.
// Zero values select the defaults.
type Options struct {
	// BulgeRatio is the height of each arc above its chord, as a fraction
	// of the chord length.  Must be less than 0.5.
	BulgeRatio float64

	// ArcSegments is the number of line segments used per arc.
	ArcSegments int
}

var (
	// ErrTooFewVertices is returned for paths with fewer than two
	// vertices, or closed paths with fewer than three.
	ErrTooFewVertices = errors.New("cloud: too few vertices")

	// ErrDegenerate is returned for paths of zero length and for closed
	// paths which enclose no area.
	ErrDegenerate = errors.New("cloud: degenerate path")

	// ErrInvalidArcLength is returned if the target arc length is not a
	// positive number.
	ErrInvalidArcLength = errors.New("cloud: invalid target arc length")

	// ErrInvalidOptions is returned for a bulge ratio outside (0, 0.5)
	// or a negative segment count.
	ErrInvalidOptions = errors.New("cloud: invalid options")
)

// Generate returns the outline of a revision cloud along the given path.
//
// The path is split into round(L/targetArcLength) pieces of equal length,
// where L is the total path length (including the closing edge if closed
// is set).  Closed paths get at least three arcs, open paths at least two.
// For closed paths the arcs bulge away from the interior, for open paths
// they bulge to the left of the direction of travel.
//
// For closed paths the returned slice does not repeat the first point at
// the end.  Vertices where two arcs meet lie on the input path.
func Generate(vertices []vec.Vec2, closed bool, targetArcLength float64, opt *Options) ([]vec.Vec2, error) {
	ratio := DefaultBulgeRatio
	segments := DefaultArcSegments
	if opt != nil {
		if opt.BulgeRatio != 0 {
			ratio = opt.BulgeRatio
		}
		if opt.ArcSegments != 0 {
			segments = opt.ArcSegments
		}
	}
	if !(ratio > 0 && ratio < 0.5) || segments < 1 {
		return nil, ErrInvalidOptions
	}
	if !(targetArcLength > 0) || math.IsInf(targetArcLength, 0) {
		return nil, ErrInvalidArcLength
	}
	if len(vertices) < 2 || closed && len(vertices) < 3 {
		return nil, ErrTooFewVertices
	}

	path := vertices
	if closed {
		path = make([]vec.Vec2, len(vertices)+1)
		copy(path, vertices)
		path[len(vertices)] = vertices[0]
	}

	lengths := make([]float64, len(path)-1)
	for i := range lengths {
		lengths[i] = path[i+1].Sub(path[i]).Length()
	}
	cum := make([]float64, len(path))
	floats.CumSum(cum[1:], lengths)
	total := cum[len(cum)-1]
	if !(total > 1e-9) || math.IsInf(total, 0) {
		return nil, ErrDegenerate
	}

	// side is +1 if arcs bulge to the left of the direction of travel.
	side := 1.0
	if closed {
		area := signedArea(vertices)
		if math.Abs(area) < 1e-9*total*total {
			return nil, ErrDegenerate
		}
		if area > 0 {
			side = -1
		}
	}

	minArcs := 2
	if closed {
		minArcs = 3
	}
	nArcs := max(minArcs, int(math.Round(total/targetArcLength)))

	junctions := resample(path, cum, nArcs)

	out := make([]vec.Vec2, 0, nArcs*segments+1)
	out = append(out, junctions[0])
	for i := range nArcs {
		out = appendArc(out, junctions[i], junctions[i+1], side, ratio, segments)
	}
	if closed {
		out = out[:len(out)-1]
	}
	return out, nil
}

// New generates a cloud outline and wraps it as annotation geometry.
// The vertices are kept as the source of the cloud.
func New(vertices []vec.Vec2, closed bool, targetArcLength float64, style annot.Style, opt *Options) (*annot.Cloud, error) {
	outline, err := Generate(vertices, closed, targetArcLength, opt)
	if err != nil {
		return nil, err
	}
	return &annot.Cloud{
		Source:  vertices,
		Outline: outline,
		Closed:  closed,
		Style:   style,
	}, nil
}

// resample returns n+1 points at equal arc-length spacing along the path.
// The first and last points coincide with the ends of the path.
func resample(path []vec.Vec2, cum []float64, n int) []vec.Vec2 {
	total := cum[len(cum)-1]
	res := make([]vec.Vec2, n+1)
	for j := range n {
		s := total * float64(j) / float64(n)

		// index of the segment containing s
		e := sort.SearchFloat64s(cum, s)
		if e > 0 && (e == len(cum) || cum[e] > s) {
			e--
		}
		e = min(e, len(path)-2)

		segLen := cum[e+1] - cum[e]
		var t float64
		if segLen > 1e-12 {
			t = min((s-cum[e])/segLen, 1)
		}
		a, b := path[e], path[e+1]
		res[j] = a.Add(b.Sub(a).Mul(t))
	}
	res[n] = path[len(path)-1]
	return res
}

// appendArc appends the points of a circular arc from a to b, not
// including a, to out.
func appendArc(out []vec.Vec2, a, b vec.Vec2, side, ratio float64, segments int) []vec.Vec2 {
	d := b.Sub(a)
	c := d.Length()
	if c < 1e-12 {
		return append(out, b)
	}

	// unit normal pointing to the bulge side
	normal := vec.Vec2{X: -d.Y * side / c, Y: d.X * side / c}

	h := ratio * c
	r := (c*c/4 + h*h) / (2 * h)
	mid := a.Add(d.Mul(0.5))
	center := mid.Sub(normal.Mul(r - h))

	ua := a.Sub(center)
	ub := b.Sub(center)
	phiA := math.Atan2(ua.Y, ua.X)
	delta := math.Atan2(ub.Y, ub.X) - phiA
	for delta > math.Pi {
		delta -= 2 * math.Pi
	}
	for delta <= -math.Pi {
		delta += 2 * math.Pi
	}

	for k := 1; k < segments; k++ {
		phi := phiA + delta*float64(k)/float64(segments)
		out = append(out, vec.Vec2{
			X: center.X + r*math.Cos(phi),
			Y: center.Y + r*math.Sin(phi),
		})
	}
	return append(out, b)
}

// signedArea returns the signed area of a polygon.
// The result is positive if the vertices are ordered counterclockwise
// in a coordinate system where the y-axis is rotated 90 degrees
// counterclockwise from the x-axis.
func signedArea(vertices []vec.Vec2) float64 {
	var area float64
	n := len(vertices)
	for i := range n {
		j := (i + 1) % n
		area += vertices[i].X*vertices[j].Y - vertices[j].X*vertices[i].Y
	}
	return area / 2
}
