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
	"strconv"

	"seehuhn.de/go/pdf/measure"
)

// Measure returns a PDF rectilinear measure dictionary for this scale.
//
// PDF measurements are taken in default user space units, so the caller
// supplies the number of PDF points which correspond to one base space
// pixel.
func (s Scale) Measure(pointsPerPixel float64) *measure.RectilinearMeasure {
	unit := string(s.Real.Unit)
	perPoint := s.Factor / pointsPerPixel
	axis := []*measure.NumberFormat{{
		Unit:             unit,
		ConversionFactor: perPoint,
		Precision:        100,
		SingleUse:        true,
	}}
	return &measure.RectilinearMeasure{
		ScaleRatio: strconv.FormatFloat(s.PixelLength*pointsPerPixel, 'f', -1, 64) +
			" pt = " + s.Real.String(),
		XAxis: axis,
		Distance: []*measure.NumberFormat{{
			Unit:             unit,
			ConversionFactor: 1,
			Precision:        100,
			SingleUse:        true,
		}},
		Area: []*measure.NumberFormat{{
			Unit:             "sq " + unit,
			ConversionFactor: 1,
			Precision:        100,
			SingleUse:        true,
		}},
		SingleUse: true,
	}
}
