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

// Package markup annotates, measures and exports single pages of PDF
// files.
//
// A [Session] ties together the components for one page of one document:
// the rendered page on display, the optional length calibration and the
// list of annotations drawn by the user.  All annotation coordinates are
// given in base space, the pixel space of the page rendered at zoom level
// 0 with the origin in the top-left corner.
//
// The components can also be used on their own, see the packages
// [seehuhn.de/go/markup/raster], [seehuhn.de/go/markup/overlay],
// [seehuhn.de/go/markup/calibrate], [seehuhn.de/go/markup/cloud] and
// [seehuhn.de/go/markup/export].
package markup

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"sync/atomic"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/markup/annot"
	"seehuhn.de/go/markup/calibrate"
	"seehuhn.de/go/markup/cloud"
	"seehuhn.de/go/markup/export"
	"seehuhn.de/go/markup/logging"
	"seehuhn.de/go/markup/overlay"
	"seehuhn.de/go/markup/preview"
	"seehuhn.de/go/markup/raster"
	"seehuhn.de/go/markup/zoom"
)

// DefaultCloudArcLength is the default target arc length of revision
// clouds, in base pixels.
const DefaultCloudArcLength = 20.0

var (
	// ErrNilGeometry is returned when a nil annotation is added.
	ErrNilGeometry = errors.New("nil annotation")

	// ErrNoAnnotation is returned by [Session.Remove] for an invalid index.
	ErrNoAnnotation = errors.New("no such annotation")
)

// Options configures a [Session].
type Options struct {
	// PageIndex selects the page of the document (0-based).
	PageIndex int

	// Zoom is the zoom level of the first rendered frame.
	Zoom int

	// Renderer rasterizes pages.  If this is nil,
	// [raster.DefaultRenderer] is used.
	Renderer raster.Renderer

	// Projection sets the base scale and the zoom range.
	// If this is nil, [zoom.Default] is used.
	Projection *zoom.Projection

	// CloudArcLength is the target arc length for [Session.AddCloud], in
	// base pixels.  If this is zero, [DefaultCloudArcLength] is used.
	CloudArcLength float64

	// Cloud controls the shape of the cloud arcs.
	Cloud *cloud.Options

	// OnFrame and OnError are passed on to the overlay.
	OnFrame func(*raster.Frame)
	OnError func(z int, err error)
}

// Session holds the state for annotating one page of a PDF file.
// The methods of a Session can be called concurrently.
type Session struct {
	doc     *raster.Document
	page    *raster.Page
	proj    *zoom.Projection
	overlay *overlay.Overlay

	cal calibrate.Calibrator

	cloudArcLength float64
	cloudOpt       *cloud.Options

	// annotations is replaced on every change and never modified, so that
	// readers always see a consistent list.
	annotations atomic.Pointer[[]annot.Geometry]
	editMu      sync.Mutex
}

// Open loads the PDF file in data and renders the selected page.
// The Session keeps a reference to data, which must not be modified.
func Open(ctx context.Context, data []byte, opt *Options) (*Session, error) {
	if opt == nil {
		opt = &Options{}
	}
	proj := opt.Projection
	if proj == nil {
		proj = zoom.Default
	}

	doc, err := raster.Open(data, &raster.Options{
		Renderer:   opt.Renderer,
		Projection: proj,
	})
	if err != nil {
		return nil, err
	}
	page, err := doc.Page(opt.PageIndex)
	if err != nil {
		return nil, err
	}
	frame, err := doc.RenderPage(ctx, opt.PageIndex, opt.Zoom)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", opt.PageIndex, err)
	}

	ov := overlay.New(doc, opt.PageIndex, &overlay.Options{
		Projection: proj,
		OnFrame:    opt.OnFrame,
		OnError:    opt.OnError,
	})
	ov.SetFrame(frame, page.Bounds(proj))

	s := &Session{
		doc:            doc,
		page:           page,
		proj:           proj,
		overlay:        ov,
		cloudArcLength: opt.CloudArcLength,
		cloudOpt:       opt.Cloud,
	}
	if s.cloudArcLength == 0 {
		s.cloudArcLength = DefaultCloudArcLength
	}
	s.annotations.Store(&[]annot.Geometry{})

	logging.Logger().Debug("session opened",
		"page", opt.PageIndex, "pages", doc.NumPages(), "zoom", frame.Zoom)
	return s, nil
}

// Document returns the loaded document.
func (s *Session) Document() *raster.Document {
	return s.doc
}

// Page returns the facts about the selected page.
func (s *Session) Page() *raster.Page {
	return s.page
}

// Overlay returns the overlay which shows the rendered page.
func (s *Session) Overlay() *overlay.Overlay {
	return s.overlay
}

// Projection returns the zoom projection used by the session.
func (s *Session) Projection() *zoom.Projection {
	return s.proj
}

// Zoom requests a new zoom level.  The page is rendered in the background;
// use the overlay to access the result.  The return value is the sequence
// number of the request.
func (s *Session) Zoom(ctx context.Context, z int) uint64 {
	return s.overlay.OnZoomChanged(ctx, z)
}

// Calibrate sets the length scale from a reference segment of the given
// length in base pixels.  On error, the previous calibration is kept.
func (s *Session) Calibrate(pixelLength float64, spec string) (calibrate.Scale, error) {
	return s.cal.Calibrate(pixelLength, spec)
}

// CalibrateSegment sets the length scale from the reference segment
// between two base space points.
func (s *Session) CalibrateSegment(a, b vec.Vec2, spec string) (calibrate.Scale, error) {
	return s.cal.Calibrate(b.Sub(a).Length(), spec)
}

// Calibration returns the current length scale, if any.
func (s *Session) Calibration() (calibrate.Scale, bool) {
	return s.cal.Current()
}

// ResetCalibration removes the length scale.
func (s *Session) ResetCalibration() {
	s.cal.Reset()
}

// ReportLength formats a length given in base pixels, using the current
// calibration if there is one.
func (s *Session) ReportLength(pixels float64) string {
	return s.cal.ReportLength(pixels)
}

// MeasureLength formats the length of an annotation.
func (s *Session) MeasureLength(g annot.Geometry) string {
	if g == nil {
		return s.cal.ReportLength(0)
	}
	return s.cal.ReportLength(annot.Length(g))
}

// Annotations returns the current list of annotations.
// The returned slice must not be modified.
func (s *Session) Annotations() []annot.Geometry {
	return *s.annotations.Load()
}

// Add appends an annotation and returns its index.
func (s *Session) Add(g annot.Geometry) (int, error) {
	if g == nil {
		return -1, ErrNilGeometry
	}
	s.editMu.Lock()
	defer s.editMu.Unlock()

	old := *s.annotations.Load()
	list := make([]annot.Geometry, len(old)+1)
	copy(list, old)
	list[len(old)] = g
	s.annotations.Store(&list)
	return len(old), nil
}

// AddCloud turns the given vertices into a revision cloud and appends it to
// the annotations.
func (s *Session) AddCloud(vertices []vec.Vec2, closed bool, style annot.Style) (*annot.Cloud, error) {
	c, err := cloud.New(vertices, closed, s.cloudArcLength, style, s.cloudOpt)
	if err != nil {
		return nil, err
	}
	_, err = s.Add(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Remove deletes the annotation with index i.
func (s *Session) Remove(i int) error {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	old := *s.annotations.Load()
	if i < 0 || i >= len(old) {
		return fmt.Errorf("%w: index %d of %d", ErrNoAnnotation, i, len(old))
	}
	list := slices.Delete(slices.Clone(old), i, i+1)
	s.annotations.Store(&list)
	return nil
}

// Export writes a single page PDF file with the current annotations drawn
// on top of the page.
//
// Fields of opt which are not set are filled in from the session: the base
// size of the page, the projection and the calibration.
func (s *Session) Export(opt *export.Options) ([]byte, error) {
	var o export.Options
	if opt != nil {
		o = *opt
	}
	if o.BaseWidth == 0 && o.BaseHeight == 0 {
		// The annotations were placed relative to the overlay, so its
		// bounds are checked against the page rather than the page
		// against itself.
		if b := s.overlay.Bounds(); !b.IsZero() {
			o.BaseWidth, o.BaseHeight = b.Dx(), b.Dy()
		} else {
			o.BaseWidth, o.BaseHeight = s.page.BaseSize(s.proj)
		}
	}
	if o.Projection == nil {
		o.Projection = s.proj
	}
	if o.Calibration == nil {
		if scale, ok := s.cal.Current(); ok {
			o.Calibration = &scale
		}
	}
	return export.Page(s.doc.Data(), s.page.Index, s.Annotations(), &o)
}

// Preview draws the current annotations over the frame on display.
func (s *Session) Preview(opt *preview.Options) (*image.RGBA, error) {
	var o preview.Options
	if opt != nil {
		o = *opt
	}
	if o.Calibration == nil {
		if scale, ok := s.cal.Current(); ok {
			o.Calibration = &scale
		}
	}
	return preview.Draw(s.overlay.Frame(), s.proj, s.Annotations(), &o)
}

// Close waits for background renders to finish.
func (s *Session) Close() {
	s.overlay.Wait()
}
