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

// Package export writes a PDF page with an annotation layer drawn on top.
//
// Annotations are given in base space, the pixel space of the page
// rendered at zoom level 0.  The original content of the page is kept
// unchanged.  It is wrapped in a save/restore pair and the annotations are
// drawn afterwards from a form XObject.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"math"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/measure"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/markup/annot"
	"seehuhn.de/go/markup/calibrate"
	"seehuhn.de/go/markup/internal/pdfpage"
	"seehuhn.de/go/markup/logging"
	"seehuhn.de/go/markup/raster"
	"seehuhn.de/go/markup/zoom"
)

var (
	// ErrPageDimensionMismatch is returned when the base space bounds do not
	// have the aspect ratio of the page.
	ErrPageDimensionMismatch = errors.New("base bounds do not match the page dimensions")

	// ErrUnsupportedGeometry is returned for annotations which cannot be
	// drawn.
	ErrUnsupportedGeometry = errors.New("unsupported annotation geometry")
)

// aspectTolerance is the relative tolerance used when comparing the aspect
// ratio of the base bounds to the aspect ratio of the page.
const aspectTolerance = 1e-3

// Options control the export.
type Options struct {
	// BaseWidth and BaseHeight give the size of the page in base space.
	// If both are zero, the size is derived from the page using
	// Projection.
	BaseWidth, BaseHeight float64

	// Projection is used to derive the base size when BaseWidth and
	// BaseHeight are not set.  If this is nil, [zoom.Default] is used.
	Projection *zoom.Projection

	// Calibration, if set, is written to the page as a measure viewport
	// and is used for length labels.
	Calibration *calibrate.Scale

	// LabelLengths adds the calibrated length to the labels of all
	// annotations which have [annot.Style.Measure] set.
	LabelLengths bool

	// Metadata attaches an XMP metadata packet and a document information
	// dictionary to the output.
	Metadata bool

	// Title is the document title used for the metadata.
	Title string
}

// Page returns a new single page PDF file, containing page pageIndex of
// the document data with the annotations drawn on top.
//
// The function does not modify data and keeps no state between calls.
func Page(data []byte, pageIndex int, annotations []annot.Geometry, opt *Options) ([]byte, error) {
	if opt == nil {
		opt = &Options{}
	}

	src, err := openPage(data, pageIndex, opt)
	if err != nil {
		return nil, err
	}

	var layer *layerData
	if len(annotations) > 0 {
		layer, err = buildLayer(src.info, src.k, annotations, opt)
		if err != nil {
			return nil, err
		}
	}

	v := max(pdf.GetVersion(src.r), pdf.V1_7)
	buf := &bytes.Buffer{}
	out, err := pdf.NewWriter(buf, v, nil)
	if err != nil {
		return nil, err
	}
	rm := pdf.NewResourceManager(out)
	copier := pdf.NewCopier(out, src.r)

	pageDict, err := copyPageDict(copier, src.info.Dict, layer != nil)
	if err != nil {
		return nil, fmt.Errorf("copying page %d: %w", pageIndex, err)
	}
	pageDict["Type"] = pdf.Name("Page")

	if layer != nil {
		err = addLayer(out, copier, src, pageDict, layer)
		if err != nil {
			return nil, err
		}
	}

	if opt.Calibration != nil {
		vp := &measure.ViewPortArray{
			Viewports: []*measure.Viewport{{
				BBox:      src.info.Box,
				Name:      "markup",
				Measure:   opt.Calibration.Measure(src.k),
				SingleUse: true,
			}},
			SingleUse: true,
		}
		obj, err := rm.Embed(vp)
		if err != nil {
			return nil, fmt.Errorf("writing measure viewport: %w", err)
		}
		pageDict["VP"] = obj
	}

	tree := pagetree.NewWriter(out, rm)
	err = tree.AppendPageDict(out.Alloc(), pageDict)
	if err != nil {
		return nil, err
	}
	root, err := tree.Close()
	if err != nil {
		return nil, err
	}
	out.GetMeta().Catalog.Pages = root

	if opt.Metadata {
		err = writeMetadata(out, opt.Title)
		if err != nil {
			return nil, fmt.Errorf("writing metadata: %w", err)
		}
	}

	err = rm.Close()
	if err != nil {
		return nil, err
	}
	err = out.Close()
	if err != nil {
		return nil, err
	}

	logging.Logger().Debug("exported page",
		"page", pageIndex,
		"annotations", len(annotations),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

// Layer returns the content stream which [Page] uses to draw the given
// annotations.  The result only depends on the arguments.
func Layer(data []byte, pageIndex int, annotations []annot.Geometry, opt *Options) (content.Stream, error) {
	if opt == nil {
		opt = &Options{}
	}
	src, err := openPage(data, pageIndex, opt)
	if err != nil {
		return nil, err
	}
	layer, err := buildLayer(src.info, src.k, annotations, opt)
	if err != nil {
		return nil, err
	}
	return layer.ops, nil
}

// source describes the page being exported.
type source struct {
	r    pdf.Getter
	info *pdfpage.Info

	// k is the number of PDF points per base pixel.
	k float64
}

func openPage(data []byte, pageIndex int, opt *Options) (*source, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", raster.ErrDocumentCorrupt, err)
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", raster.ErrDocumentCorrupt, err)
	}
	if err := raster.CheckIndex(pageIndex, n); err != nil {
		return nil, err
	}
	info, err := pdfpage.Read(r, pageIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %w", raster.ErrDocumentCorrupt, pageIndex, err)
	}

	width, height := info.Size()
	baseW, baseH := opt.BaseWidth, opt.BaseHeight
	if baseW == 0 && baseH == 0 {
		proj := opt.Projection
		if proj == nil {
			proj = zoom.Default
		}
		baseW = width * proj.BaseScale()
		baseH = height * proj.BaseScale()
	}
	if !(baseW > 0 && baseH > 0) || math.IsInf(baseW, 0) || math.IsInf(baseH, 0) {
		return nil, fmt.Errorf("%w: base size %gx%g", ErrPageDimensionMismatch, baseW, baseH)
	}
	pageAspect := width / height
	baseAspect := baseW / baseH
	if math.Abs(baseAspect-pageAspect) > aspectTolerance*pageAspect {
		return nil, fmt.Errorf("%w: base size %gx%g, page size %gx%g",
			ErrPageDimensionMismatch, baseW, baseH, width, height)
	}

	return &source{
		r:    r,
		info: info,
		k:    width / baseW,
	}, nil
}

// pageKeys lists the page dictionary entries which are carried over to
// the exported page.  Annotations, structure and thumbnails are not
// copied.
var pageKeys = []pdf.Name{
	"MediaBox", "CropBox", "BleedBox", "TrimBox", "ArtBox",
	"Rotate", "UserUnit", "Resources", "Contents", "Group",
}

// copyPageDict copies the entries listed in pageKeys.  If the page gets an
// annotation layer, the resources and contents are copied by addLayer
// instead.
func copyPageDict(copier *pdf.Copier, in pdf.Dict, withLayer bool) (pdf.Dict, error) {
	sub := pdf.Dict{}
	for _, key := range pageKeys {
		if withLayer && (key == "Resources" || key == "Contents") {
			continue
		}
		if val := in[key]; val != nil {
			sub[key] = val
		}
	}
	return copier.CopyDict(sub)
}

// addLayer writes the annotation layer as a form XObject and appends a
// reference to it to the page's content.
func addLayer(out *pdf.Writer, copier *pdf.Copier, src *source, pageDict pdf.Dict, layer *layerData) error {
	res, err := pdf.GetDict(src.r, src.info.Dict["Resources"])
	if err != nil {
		return fmt.Errorf("%w: page resources: %w", raster.ErrDocumentCorrupt, err)
	}
	xObjects, err := pdf.GetDict(src.r, res["XObject"])
	if err != nil {
		return fmt.Errorf("%w: page XObjects: %w", raster.ErrDocumentCorrupt, err)
	}
	otherRes := maps.Clone(res)
	delete(otherRes, "XObject")
	newRes, err := copier.CopyDict(otherRes)
	if err != nil {
		return err
	}
	newXObjects, err := copier.CopyDict(xObjects)
	if err != nil {
		return err
	}

	name := pdf.Name("Markup")
	for i := 1; newXObjects[name] != nil; i++ {
		name = pdf.Name(fmt.Sprintf("Markup%d", i))
	}

	layerRef := out.Alloc()
	err = layer.write(out, layerRef, src.info.Box)
	if err != nil {
		return err
	}
	newXObjects[name] = layerRef
	newRes["XObject"] = newXObjects
	pageDict["Resources"] = newRes

	// Contents may be a stream, an array of streams or a reference to such
	// an array.  Every entry of the new array must be a stream.
	var contents pdf.Array
	orig := src.info.Dict["Contents"]
	resolved, err := pdf.Resolve(src.r, orig)
	if err != nil {
		return fmt.Errorf("%w: page contents: %w", raster.ErrDocumentCorrupt, err)
	}
	switch c := resolved.(type) {
	case nil:
	case pdf.Array:
		contents, err = copier.CopyArray(c)
		if err != nil {
			return err
		}
	default:
		stm, err := copier.Copy(orig.AsPDF(out.GetOptions()))
		if err != nil {
			return err
		}
		contents = pdf.Array{stm}
	}

	pre := out.Alloc()
	err = writeOps(out, pre, nil, content.Stream{
		{Name: content.OpPushGraphicsState},
	})
	if err != nil {
		return err
	}
	post := out.Alloc()
	err = writeOps(out, post, nil, content.Stream{
		{Name: content.OpPopGraphicsState},
		{Name: content.OpPushGraphicsState},
		{Name: content.OpXObject, Args: []pdf.Object{name}},
		{Name: content.OpPopGraphicsState},
	})
	if err != nil {
		return err
	}

	all := make(pdf.Array, 0, len(contents)+2)
	all = append(all, pre)
	all = append(all, contents...)
	all = append(all, post)
	pageDict["Contents"] = all
	return nil
}

func writeOps(out *pdf.Writer, ref pdf.Reference, dict pdf.Dict, ops content.Stream) error {
	stm, err := out.OpenStream(ref, dict, pdf.FilterCompress{})
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := content.WriteOperator(stm, op); err != nil {
			stm.Close()
			return err
		}
	}
	return stm.Close()
}
