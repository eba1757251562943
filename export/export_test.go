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
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/markup/annot"
	"seehuhn.de/go/markup/calibrate"
	"seehuhn.de/go/markup/internal/pdftest"
	"seehuhn.de/go/markup/raster"
)

const testContent = "0 0 1 rg 10 10 100 100 re f\n"

func testDoc(t *testing.T, pages ...pdftest.Page) []byte {
	t.Helper()
	data, err := pdftest.Write(pages...)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// pageContent returns the decoded content of the first page of a file.
func pageContent(t *testing.T, data []byte) (pdf.Getter, pdf.Dict, []byte) {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatal(err)
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("exported file has %d pages", n)
	}
	_, dict, err := pagetree.GetPage(r, 0)
	if err != nil {
		t.Fatal(err)
	}
	body, err := pagetree.ContentStream(r, dict)
	if err != nil {
		t.Fatal(err)
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	return r, dict, buf
}

// firstOp returns the arguments of the first operator with the given name.
func firstOp(t *testing.T, ops content.Stream, name content.OpName) []pdf.Object {
	t.Helper()
	for _, op := range ops {
		if op.Name == name {
			return op.Args
		}
	}
	t.Fatalf("no %q operator in layer", name)
	return nil
}

func TestEmptyKeepsContent(t *testing.T) {
	page := pdftest.A4
	page.Content = testContent
	data := testDoc(t, pdftest.A4, page)

	out, err := Page(data, 1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, dict, body := pageContent(t, out)
	if string(body) != testContent {
		t.Errorf("content = %q, want %q", body, testContent)
	}
	if dict["MediaBox"] == nil {
		t.Error("MediaBox missing")
	}
}

func TestContentWrapped(t *testing.T) {
	page := pdftest.A4
	page.Content = testContent
	data := testDoc(t, page)

	line := &annot.Polyline{Vertices: []vec.Vec2{{X: 10, Y: 10}, {X: 200, Y: 300}}}
	out, err := Page(data, 0, []annot.Geometry{line}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, _, body := pageContent(t, out)
	if !bytes.Contains(body, []byte("100 100 re")) {
		t.Errorf("original content lost: %q", body)
	}
	ops, err := content.ReadStream(bytes.NewReader(body), pdf.GetVersion(r), content.Page, &content.Resources{})
	if err != nil {
		t.Fatal(err)
	}
	var names []content.OpName
	for _, op := range ops {
		names = append(names, op.Name)
	}
	if len(names) < 5 || names[0] != "q" {
		t.Fatalf("unexpected operators %v", names)
	}
	tail := names[len(names)-4:]
	if d := cmp.Diff([]content.OpName{"Q", "q", "Do", "Q"}, tail); d != "" {
		t.Errorf("tail (-want +got):\n%s", d)
	}
}

func TestIndirectContentsArray(t *testing.T) {
	page := pdftest.A4
	page.ContentParts = []string{"0 0 1 rg\n", "100 100 50 50 re f\n"}
	data := testDoc(t, page)

	line := &annot.Polyline{Vertices: []vec.Vec2{{X: 10, Y: 10}, {X: 200, Y: 300}}}
	out, err := Page(data, 0, []annot.Geometry{line}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, dict, body := pageContent(t, out)

	contents, err := pdf.GetArray(r, dict["Contents"])
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 4 {
		t.Fatalf("Contents has %d entries, want 4", len(contents))
	}
	for i, obj := range contents {
		if _, err := pdf.GetStream(r, obj); err != nil {
			t.Errorf("Contents[%d]: %v", i, err)
		}
	}

	for _, part := range page.ContentParts {
		if !bytes.Contains(body, []byte(part[:len(part)-1])) {
			t.Errorf("content part %q lost: %q", part, body)
		}
	}
	ops, err := content.ReadStream(bytes.NewReader(body), pdf.GetVersion(r), content.Page, &content.Resources{})
	if err != nil {
		t.Fatal(err)
	}
	var names []content.OpName
	for _, op := range ops {
		names = append(names, op.Name)
	}
	if len(names) < 5 || names[0] != "q" {
		t.Fatalf("unexpected operators %v", names)
	}
	if d := cmp.Diff([]content.OpName{"Q", "q", "Do", "Q"}, names[len(names)-4:]); d != "" {
		t.Errorf("tail (-want +got):\n%s", d)
	}
}

func TestLayerDeterministic(t *testing.T) {
	data := testDoc(t, pdftest.A4)
	red := annot.Color{R: 255}
	annotations := []annot.Geometry{
		&annot.Marker{At: vec.Vec2{X: 50, Y: 50}},
		&annot.Polygon{
			Vertices: []vec.Vec2{{X: 100, Y: 100}, {X: 300, Y: 100}, {X: 200, Y: 250}},
			Style:    annot.Style{Fill: &red, Label: "area"},
		},
		&annot.Circle{Center: vec.Vec2{X: 400, Y: 400}, Radius: 30},
	}
	a, err := Layer(data, 0, annotations, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Layer(data, 0, annotations, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(a, b); d != "" {
		t.Errorf("layers differ (-first +second):\n%s", d)
	}
}

func TestPlacement(t *testing.T) {
	line := &annot.Polyline{Vertices: []vec.Vec2{{X: 0, Y: 0}, {X: 100, Y: 50}}}

	cases := []struct {
		name   string
		page   pdftest.Page
		opt    *Options
		moveTo []pdf.Object
	}{
		{
			name:   "plain",
			page:   pdftest.A4,
			moveTo: []pdf.Object{pdf.Real(0), pdf.Real(842)},
		},
		{
			name:   "half size base",
			page:   pdftest.A4,
			opt:    &Options{BaseWidth: 297.5, BaseHeight: 421},
			moveTo: []pdf.Object{pdf.Real(0), pdf.Real(842)},
		},
		{
			name: "offset crop box",
			page: pdftest.Page{
				MediaBox: pdf.Rectangle{URx: 600, URy: 800},
				CropBox:  &pdf.Rectangle{LLx: 50, LLy: 100, URx: 550, URy: 700},
			},
			moveTo: []pdf.Object{pdf.Real(50), pdf.Real(700)},
		},
		{
			name: "rotated",
			page: pdftest.Page{
				MediaBox: pdf.Rectangle{URx: 600, URy: 400},
				Rotate:   90,
			},
			moveTo: []pdf.Object{pdf.Real(0), pdf.Real(0)},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := testDoc(t, c.page)
			ops, err := Layer(data, 0, []annot.Geometry{line}, c.opt)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(c.moveTo, firstOp(t, ops, content.OpMoveTo)); d != "" {
				t.Errorf("moveto (-want +got):\n%s", d)
			}
		})
	}
}

func TestRotatedLineTo(t *testing.T) {
	data := testDoc(t, pdftest.Page{
		MediaBox: pdf.Rectangle{URx: 600, URy: 400},
		Rotate:   90,
	})
	line := &annot.Polyline{Vertices: []vec.Vec2{{X: 0, Y: 0}, {X: 10, Y: 20}}}
	ops, err := Layer(data, 0, []annot.Geometry{line}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []pdf.Object{pdf.Real(20), pdf.Real(10)}
	if d := cmp.Diff(want, firstOp(t, ops, content.OpLineTo)); d != "" {
		t.Errorf("lineto (-want +got):\n%s", d)
	}
}

func TestLineWidthScaled(t *testing.T) {
	data := testDoc(t, pdftest.A4)
	line := &annot.Polyline{
		Vertices: []vec.Vec2{{X: 0, Y: 0}, {X: 100, Y: 50}},
		Style:    annot.Style{LineWidth: 4},
	}
	ops, err := Layer(data, 0, []annot.Geometry{line}, &Options{BaseWidth: 1190, BaseHeight: 1684})
	if err != nil {
		t.Fatal(err)
	}
	want := []pdf.Object{pdf.Real(2)}
	if d := cmp.Diff(want, firstOp(t, ops, content.OpSetLineWidth)); d != "" {
		t.Errorf("line width (-want +got):\n%s", d)
	}
}

func TestErrors(t *testing.T) {
	data := testDoc(t, pdftest.A4, pdftest.A4)
	line := &annot.Polyline{Vertices: []vec.Vec2{{X: 0, Y: 0}, {X: 100, Y: 50}}}

	cases := []struct {
		name        string
		data        []byte
		idx         int
		annotations []annot.Geometry
		opt         *Options
		want        error
	}{
		{"corrupt", []byte("%PDF-1.7\nnonsense"), 0, nil, nil, raster.ErrDocumentCorrupt},
		{"negative index", data, -1, nil, nil, raster.ErrPageIndexOutOfRange},
		{"index too large", data, 2, nil, nil, raster.ErrPageIndexOutOfRange},
		{"aspect", data, 0, nil, &Options{BaseWidth: 100, BaseHeight: 100}, ErrPageDimensionMismatch},
		{"negative size", data, 0, nil, &Options{BaseWidth: -595, BaseHeight: -842}, ErrPageDimensionMismatch},
		{"one side", data, 0, nil, &Options{BaseWidth: 595}, ErrPageDimensionMismatch},
		{"nil geometry", data, 0, []annot.Geometry{line, nil}, nil, ErrUnsupportedGeometry},
		{"short polyline", data, 0, []annot.Geometry{&annot.Polyline{Vertices: []vec.Vec2{{}}}}, nil, ErrUnsupportedGeometry},
		{"empty cloud", data, 0, []annot.Geometry{&annot.Cloud{Closed: true}}, nil, ErrUnsupportedGeometry},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Page(c.data, c.idx, c.annotations, c.opt)
			if !errors.Is(err, c.want) {
				t.Errorf("Page: got %v, want %v", err, c.want)
			}
		})
	}
}

func TestLengthLabels(t *testing.T) {
	data := testDoc(t, pdftest.A4)
	scale, err := calibrate.NewScale(100, "20m")
	if err != nil {
		t.Fatal(err)
	}
	line := &annot.Polyline{
		Vertices: []vec.Vec2{{X: 100, Y: 100}, {X: 100, Y: 200}},
		Style:    annot.Style{Label: "wall", Measure: true},
	}

	ops, err := Layer(data, 0, []annot.Geometry{line}, &Options{Calibration: &scale})
	if err != nil {
		t.Fatal(err)
	}
	want := []pdf.Object{pdf.String("wall")}
	if d := cmp.Diff(want, firstOp(t, ops, content.OpTextShow)); d != "" {
		t.Errorf("label without lengths (-want +got):\n%s", d)
	}

	ops, err = Layer(data, 0, []annot.Geometry{line}, &Options{Calibration: &scale, LabelLengths: true})
	if err != nil {
		t.Fatal(err)
	}
	want = []pdf.Object{pdf.String("wall 20m")}
	if d := cmp.Diff(want, firstOp(t, ops, content.OpTextShow)); d != "" {
		t.Errorf("label with lengths (-want +got):\n%s", d)
	}
}

func TestCalibrationAndMetadata(t *testing.T) {
	data := testDoc(t, pdftest.A4)
	scale, err := calibrate.NewScale(100, "20m")
	if err != nil {
		t.Fatal(err)
	}
	marker := &annot.Marker{At: vec.Vec2{X: 20, Y: 20}}
	out, err := Page(data, 0, []annot.Geometry{marker}, &Options{
		Calibration: &scale,
		Metadata:    true,
		Title:       "Site plan",
	})
	if err != nil {
		t.Fatal(err)
	}
	r, dict, _ := pageContent(t, out)
	vp, err := pdf.GetArray(r, dict["VP"])
	if err != nil {
		t.Fatal(err)
	}
	if len(vp) != 1 {
		t.Errorf("VP has %d entries, want 1", len(vp))
	}
	var noRef pdf.Reference
	if r.GetMeta().Catalog.Metadata == noRef {
		t.Error("metadata stream missing")
	}
}
