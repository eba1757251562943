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
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB colour.
type Color struct {
	R, G, B uint8
}

// DefaultStroke is the stroke colour used when a style leaves it unset.
var DefaultStroke = Color{R: 0x33, G: 0x88, B: 0xff}

// DefaultLineWidth is the line width, in base space pixels, used when a
// style leaves it unset.
const DefaultLineWidth = 3.0

// Style describes how an annotation is drawn.
type Style struct {
	// Stroke is the outline colour.  If nil, [DefaultStroke] is used.
	Stroke *Color

	// Fill is the fill colour of closed shapes.  If nil, shapes are not
	// filled.
	Fill *Color

	// LineWidth is the line width in base space pixels.
	// Zero selects [DefaultLineWidth].
	LineWidth float64

	// Label is shown next to the annotation.
	Label string

	// Measure marks the annotation as a measurement.  If the exporter is
	// asked to label lengths, the calibrated length is added to the label.
	Measure bool
}

// StrokeColor returns the effective stroke colour.
func (s Style) StrokeColor() Color {
	if s.Stroke == nil {
		return DefaultStroke
	}
	return *s.Stroke
}

// Width returns the effective line width.
func (s Style) Width() float64 {
	if s.LineWidth <= 0 {
		return DefaultLineWidth
	}
	return s.LineWidth
}

// ErrInvalidColor is returned by [ParseColor] for malformed input.
var ErrInvalidColor = errors.New("invalid colour")

// ParseColor parses a colour in the form "#rrggbb" or "#rgb".
func ParseColor(s string) (Color, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return Color{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%q: %w", s, ErrInvalidColor)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
