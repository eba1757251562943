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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/vec"
)

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want Length
	}{
		{"20m", Length{20, Metre}},
		{"12.5 ft", Length{12.5, Foot}},
		{" 3CM ", Length{3, Centimetre}},
		{".5in", Length{0.5, Inch}},
		{"７mm", Length{7, Millimetre}}, // full-width digit
	}
	for _, c := range cases {
		got, err := ParseLength(c.in)
		if err != nil {
			t.Errorf("ParseLength(%q): %v", c.in, err)
			continue
		}
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("ParseLength(%q) (-want +got):\n%s", c.in, d)
		}
	}
}

func TestInvalidLengthSpec(t *testing.T) {
	for _, in := range []string{"abc", "20", "-5m", "0m", "", "m", "5 km", "1e3m", "5..1m", "NaNm"} {
		_, err := ParseLength(in)
		if !errors.Is(err, ErrInvalidLengthSpec) {
			t.Errorf("ParseLength(%q) = %v, want ErrInvalidLengthSpec", in, err)
		}
		var specErr *LengthSpecError
		if !errors.As(err, &specErr) || specErr.Spec != in {
			t.Errorf("ParseLength(%q): error %v does not name the input", in, err)
		}
	}
}

func TestCalibrate(t *testing.T) {
	var c Calibrator

	if got := c.ReportLength(50); got != "50px" {
		t.Errorf("uncalibrated ReportLength(50) = %q, want \"50px\"", got)
	}

	s, err := c.Calibrate(100, "20m")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.Factor-0.2) > 1e-12 {
		t.Errorf("factor = %g, want 0.2", s.Factor)
	}
	if got := c.ReportLength(50); got != "10m" {
		t.Errorf("ReportLength(50) = %q, want \"10m\"", got)
	}
	if got := c.ReportLength(33); got != "6.6m" {
		t.Errorf("ReportLength(33) = %q, want \"6.6m\"", got)
	}
}

func TestCalibrateFailureKeepsState(t *testing.T) {
	var c Calibrator
	if _, err := c.Calibrate(100, "20m"); err != nil {
		t.Fatal(err)
	}
	want, _ := c.Current()

	if _, err := c.Calibrate(100, "abc"); !errors.Is(err, ErrInvalidLengthSpec) {
		t.Errorf("Calibrate with bad spec: got %v", err)
	}
	if _, err := c.Calibrate(0, "5m"); !errors.Is(err, ErrZeroLength) {
		t.Errorf("Calibrate with zero length: got %v", err)
	}
	if _, err := c.Calibrate(math.NaN(), "5m"); !errors.Is(err, ErrZeroLength) {
		t.Errorf("Calibrate with NaN length: got %v", err)
	}

	got, ok := c.Current()
	if !ok {
		t.Fatal("calibration lost")
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("state changed (-want +got):\n%s", d)
	}
}

func TestRecalibrate(t *testing.T) {
	var c Calibrator
	if _, err := c.Calibrate(100, "20m"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Calibrate(10, "1ft"); err != nil {
		t.Fatal(err)
	}
	if got := c.ReportLength(25); got != "2.5ft" {
		t.Errorf("ReportLength(25) = %q, want \"2.5ft\"", got)
	}
	c.Reset()
	if got := c.ReportLength(25); got != "25px" {
		t.Errorf("after Reset: ReportLength(25) = %q, want \"25px\"", got)
	}
}

func TestPolylineLength(t *testing.T) {
	square := []vec.Vec2{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 4}, {X: 0, Y: 4}}
	opt := cmpopts.EquateApprox(0, 1e-12)
	if d := cmp.Diff(10.0, PolylineLength(square, false), opt); d != "" {
		t.Errorf("open (-want +got):\n%s", d)
	}
	if d := cmp.Diff(14.0, PolylineLength(square, true), opt); d != "" {
		t.Errorf("closed (-want +got):\n%s", d)
	}

	// a closed path through two points goes there and back
	pair := square[:2]
	if d := cmp.Diff(6.0, PolylineLength(pair, true), opt); d != "" {
		t.Errorf("closed pair (-want +got):\n%s", d)
	}
	if got := PolylineLength(square[:1], true); got != 0 {
		t.Errorf("single point: %g", got)
	}
}

func TestMeasure(t *testing.T) {
	s, err := NewScale(100, "20m")
	if err != nil {
		t.Fatal(err)
	}
	m := s.Measure(0.5)
	if len(m.XAxis) != 1 || m.XAxis[0].Unit != "m" {
		t.Fatalf("unexpected x axis %+v", m.XAxis)
	}
	// 1 point is 2 base pixels, which is 0.4m
	if got := m.XAxis[0].ConversionFactor; math.Abs(got-0.4) > 1e-12 {
		t.Errorf("conversion factor = %g, want 0.4", got)
	}
	if m.ScaleRatio != "50 pt = 20m" {
		t.Errorf("scale ratio = %q", m.ScaleRatio)
	}
}
