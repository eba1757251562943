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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/geom/vec"
)

// ErrUnknownType is returned by [Decode] for records with an unknown
// "type" field.
var ErrUnknownType = errors.New("unknown annotation type")

// record is the JSON form of one annotation.
type record struct {
	Type    string       `json:"type"`
	Points  [][2]float64 `json:"points,omitempty"`
	Center  *[2]float64  `json:"center,omitempty"`
	Radius  float64      `json:"radius,omitempty"`
	Closed  *bool        `json:"closed,omitempty"`
	Stroke  string       `json:"stroke,omitempty"`
	Fill    string       `json:"fill,omitempty"`
	Width   float64      `json:"width,omitempty"`
	Label   string       `json:"label,omitempty"`
	Measure bool         `json:"measure,omitempty"`
}

// Decode reads a JSON array of annotations.
//
// Each element has a "type" field ("marker", "line", "polyline",
// "polygon", "circle" or "cloud") and the fields needed for that type.
// Points are given as [x, y] pairs in base space.  Clouds are returned
// with an empty Outline; the session generates it when the cloud is added.
func Decode(r io.Reader) ([]Geometry, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding annotations: %w", err)
	}

	res := make([]Geometry, 0, len(records))
	for i, rec := range records {
		g, err := rec.geometry()
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		res = append(res, g)
	}
	return res, nil
}

func (rec *record) geometry() (Geometry, error) {
	style, err := rec.style()
	if err != nil {
		return nil, err
	}
	pts := make([]vec.Vec2, len(rec.Points))
	for i, p := range rec.Points {
		pts[i] = vec.Vec2{X: p[0], Y: p[1]}
	}

	switch rec.Type {
	case "marker":
		if rec.Center != nil {
			return &Marker{At: vec.Vec2{X: rec.Center[0], Y: rec.Center[1]}, Style: style}, nil
		}
		if len(pts) != 1 {
			return nil, errors.New("marker needs exactly one point")
		}
		return &Marker{At: pts[0], Style: style}, nil
	case "line", "polyline":
		if len(pts) < 2 {
			return nil, errors.New(rec.Type + " needs at least two points")
		}
		return &Polyline{Vertices: pts, Style: style}, nil
	case "polygon":
		if len(pts) < 3 {
			return nil, errors.New("polygon needs at least three points")
		}
		return &Polygon{Vertices: pts, Style: style}, nil
	case "circle":
		if rec.Center == nil || !(rec.Radius > 0) {
			return nil, errors.New("circle needs a centre and a positive radius")
		}
		return &Circle{
			Center: vec.Vec2{X: rec.Center[0], Y: rec.Center[1]},
			Radius: rec.Radius,
			Style:  style,
		}, nil
	case "cloud":
		closed := true
		if rec.Closed != nil {
			closed = *rec.Closed
		}
		return &Cloud{Source: pts, Closed: closed, Style: style}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, rec.Type)
	}
}

func (rec *record) style() (Style, error) {
	s := Style{
		LineWidth: rec.Width,
		Label:     rec.Label,
		Measure:   rec.Measure,
	}
	if rec.Stroke != "" {
		c, err := ParseColor(rec.Stroke)
		if err != nil {
			return Style{}, err
		}
		s.Stroke = &c
	}
	if rec.Fill != "" {
		c, err := ParseColor(rec.Fill)
		if err != nil {
			return Style{}, err
		}
		s.Fill = &c
	}
	return s, nil
}
