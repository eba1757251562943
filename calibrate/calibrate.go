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

package calibrate

import (
	"errors"
	"math"
	"sync/atomic"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/markup/logging"
)

// ErrZeroLength is returned when a reference segment has no usable length.
var ErrZeroLength = errors.New("calibration segment has zero length")

// Scale is the result of a calibration.
type Scale struct {
	// PixelLength is the length of the reference segment in base space pixels.
	PixelLength float64

	// Real is the real-world length of the reference segment.
	Real Length

	// Factor is the number of units per base space pixel.
	Factor float64
}

// NewScale computes the scale for a reference segment of the given pixel
// length and real-world length.
func NewScale(pixelLength float64, spec string) (Scale, error) {
	if !(pixelLength > 0) || math.IsInf(pixelLength, 0) {
		return Scale{}, ErrZeroLength
	}
	l, err := ParseLength(spec)
	if err != nil {
		return Scale{}, err
	}
	return Scale{
		PixelLength: pixelLength,
		Real:        l,
		Factor:      l.Value / pixelLength,
	}, nil
}

// Convert returns a pixel length in calibrated units.
func (s Scale) Convert(pixels float64) float64 {
	return pixels * s.Factor
}

// Format returns a pixel length in calibrated units, as a string like "10m".
func (s Scale) Format(pixels float64) string {
	return formatNumber(s.Convert(pixels)) + string(s.Real.Unit)
}

// Calibrator holds the calibration state of a page.
//
// The zero value is uncalibrated and ready to use.  A Calibrator is safe
// for concurrent use; the state is always replaced as a whole.
type Calibrator struct {
	scale atomic.Pointer[Scale]
}

// Calibrate sets the scale from a reference segment.
//
// If the arguments are invalid, an error is returned and the previous
// calibration stays in effect.
func (c *Calibrator) Calibrate(pixelLength float64, spec string) (Scale, error) {
	s, err := NewScale(pixelLength, spec)
	if err != nil {
		return Scale{}, err
	}
	c.scale.Store(&s)
	logging.Logger().Debug("calibrated",
		"pixels", pixelLength, "length", s.Real.String(), "factor", s.Factor)
	return s, nil
}

// Current returns the current scale.
// The second return value is false if no calibration has been set.
func (c *Calibrator) Current() (Scale, bool) {
	s := c.scale.Load()
	if s == nil {
		return Scale{}, false
	}
	return *s, true
}

// Reset removes the calibration.
func (c *Calibrator) Reset() {
	c.scale.Store(nil)
}

// ReportLength formats a length given in base space pixels.
// Without calibration, the pixel count is reported with unit "px".
func (c *Calibrator) ReportLength(pixels float64) string {
	s := c.scale.Load()
	if s == nil {
		return formatNumber(pixels) + "px"
	}
	return s.Format(pixels)
}

// PolylineLength returns the length of the path through the given points.
// If closed is true, the segment from the last point back to the first
// is included.  This is the length used for all measurement labels.
func PolylineLength(points []vec.Vec2, closed bool) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].Sub(points[i-1]).Length()
	}
	if closed && len(points) > 1 {
		total += points[0].Sub(points[len(points)-1]).Length()
	}
	return total
}
