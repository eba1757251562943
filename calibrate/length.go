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

// Package calibrate converts lengths measured in base space pixels into
// real-world units.
//
// A [Calibrator] is set up from one reference segment of known length.
// After that, every pixel length can be reported in the calibrated unit.
package calibrate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Unit is a unit of length accepted in length specifications.
type Unit string

// The supported units.
const (
	Metre      Unit = "m"
	Centimetre Unit = "cm"
	Millimetre Unit = "mm"
	Foot       Unit = "ft"
	Inch       Unit = "in"
)

// metres gives the length of one unit in metres.
var metres = map[Unit]float64{
	Metre:      1,
	Centimetre: 0.01,
	Millimetre: 0.001,
	Foot:       0.3048,
	Inch:       0.0254,
}

// Metres returns the length of one unit in metres.
// The second return value is false for unknown units.
func (u Unit) Metres() (float64, bool) {
	m, ok := metres[u]
	return m, ok
}

// Length is a real-world length, as given in a length specification.
type Length struct {
	Value float64
	Unit  Unit
}

func (l Length) String() string {
	return formatNumber(l.Value) + string(l.Unit)
}

// ErrInvalidLengthSpec is returned when a length specification does not
// have the form <decimal><unit>.
var ErrInvalidLengthSpec = errors.New("invalid length specification")

// LengthSpecError reports a length specification which could not be
// parsed.
type LengthSpecError struct {
	Spec   string
	Reason string
}

func (err *LengthSpecError) Error() string {
	return fmt.Sprintf("invalid length specification %q: %s", err.Spec, err.Reason)
}

// Unwrap returns [ErrInvalidLengthSpec].
func (err *LengthSpecError) Unwrap() error {
	return ErrInvalidLengthSpec
}

// ParseLength parses a length specification like "20m" or "12.5 ft".
//
// The number must be a positive decimal, the unit one of m, cm, mm, ft
// and in.  Unicode compatibility characters (for example full-width digits)
// are normalised first and the unit is case-insensitive.
func ParseLength(spec string) (Length, error) {
	s := strings.ToLower(strings.TrimSpace(norm.NFKC.String(spec)))

	split := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r == '.' || r == '+' || r == '-')
	})
	if split < 0 {
		return Length{}, &LengthSpecError{Spec: spec, Reason: "missing unit"}
	}
	num := s[:split]
	unit := Unit(strings.TrimLeftFunc(s[split:], unicode.IsSpace))

	if num == "" {
		return Length{}, &LengthSpecError{Spec: spec, Reason: "missing number"}
	}
	if _, ok := metres[unit]; !ok {
		return Length{}, &LengthSpecError{Spec: spec, Reason: "unknown unit " + strconv.Quote(string(unit))}
	}
	x, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, &LengthSpecError{Spec: spec, Reason: "malformed number"}
	}
	if !(x > 0) || math.IsInf(x, 0) {
		return Length{}, &LengthSpecError{Spec: spec, Reason: "length must be positive"}
	}

	return Length{Value: x, Unit: unit}, nil
}

// formatNumber rounds x to two decimals and omits trailing zeros.
func formatNumber(x float64) string {
	x = math.Round(x*100) / 100
	if x == 0 {
		x = 0 // avoid "-0"
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}
