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

// Package zoom implements the linear projection between base space and
// the viewport at a given zoom level.
//
// Base space is the pixel grid of a page rendered at zoom level 0.  Each
// zoom step doubles the number of pixels per base unit.  There is no
// distortion term: the projection is a pure scaling, so converting between
// base space and viewport space is exact up to rounding.
package zoom

import (
	"errors"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// Default values for [Options].
const (
	DefaultMinZoom   = -2
	DefaultMaxZoom   = 2
	DefaultBaseScale = 1.0
)

// Options configures a [Projection].
// The zero value of each field selects the corresponding default.
type Options struct {
	// BaseScale is the number of base pixels per PDF point at zoom 0.
	BaseScale float64

	// MinZoom and MaxZoom bound the zoom levels accepted by [Projection.Clamp].
	// If both are zero, the defaults are used.
	MinZoom, MaxZoom int
}

// ErrInvalidRange is returned by [New] for an empty zoom range or a
// non-positive base scale.
var ErrInvalidRange = errors.New("zoom: invalid zoom range")

// Projection converts between base space and the viewport at a zoom level.
// A Projection is immutable and safe for concurrent use.
type Projection struct {
	baseScale float64
	minZoom   int
	maxZoom   int
}

// New returns a projection for the given options.
// If opt is nil, default options are used.
func New(opt *Options) (*Projection, error) {
	p := &Projection{
		baseScale: DefaultBaseScale,
		minZoom:   DefaultMinZoom,
		maxZoom:   DefaultMaxZoom,
	}
	if opt == nil {
		return p, nil
	}
	if opt.BaseScale != 0 {
		p.baseScale = opt.BaseScale
	}
	if opt.MinZoom != 0 || opt.MaxZoom != 0 {
		p.minZoom = opt.MinZoom
		p.maxZoom = opt.MaxZoom
	}
	if !(p.baseScale > 0) || math.IsInf(p.baseScale, 0) || p.minZoom > p.maxZoom {
		return nil, ErrInvalidRange
	}
	return p, nil
}

// Default is the projection with default options.
var Default, _ = New(nil)

// ScaleFor returns the number of viewport pixels per base pixel,
// multiplied by the base scale.  ScaleFor(z+1) is exactly 2*ScaleFor(z).
func (p *Projection) ScaleFor(z int) float64 {
	return math.Ldexp(p.baseScale, z)
}

// DPI returns the rendering resolution for zoom level z.
func (p *Projection) DPI(z int) float64 {
	return 72 * p.ScaleFor(z)
}

// BaseScale returns the number of base pixels per PDF point.
func (p *Projection) BaseScale() float64 {
	return p.baseScale
}

// ToBaseSpace maps a viewport point at zoom level z to base space.
func (p *Projection) ToBaseSpace(v vec.Vec2, z int) vec.Vec2 {
	return vec.Vec2{X: math.Ldexp(v.X, -z), Y: math.Ldexp(v.Y, -z)}
}

// FromBaseSpace maps a base space point to the viewport at zoom level z.
func (p *Projection) FromBaseSpace(v vec.Vec2, z int) vec.Vec2 {
	return vec.Vec2{X: math.Ldexp(v.X, z), Y: math.Ldexp(v.Y, z)}
}

// Matrix returns the transformation from base space to the viewport at
// zoom level z.
func (p *Projection) Matrix(z int) matrix.Matrix {
	s := math.Ldexp(1, z)
	return matrix.Scale(s, s)
}

// MinZoom returns the smallest supported zoom level.
func (p *Projection) MinZoom() int { return p.minZoom }

// MaxZoom returns the largest supported zoom level.
func (p *Projection) MaxZoom() int { return p.maxZoom }

// Valid reports whether z lies in the supported range.
func (p *Projection) Valid(z int) bool {
	return z >= p.minZoom && z <= p.maxZoom
}

// Clamp returns the zoom level in the supported range closest to z.
func (p *Projection) Clamp(z int) int {
	return min(max(z, p.minZoom), p.maxZoom)
}
