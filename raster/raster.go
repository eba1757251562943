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

// Package raster turns pages of a PDF document into pixel images.
//
// A [Document] holds the bytes of a loaded PDF file and the facts about
// its pages.  Rendering is delegated to a [Renderer]; the packages
// raster/ghostscript and raster/vector provide implementations.
//
// Render requests may overlap.  Every call works on its own view of the
// immutable document bytes, so a Document can be used from several
// goroutines.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/markup/internal/pdfpage"
	"seehuhn.de/go/markup/logging"
	"seehuhn.de/go/markup/zoom"
)

var (
	// ErrDocumentCorrupt is returned when the document bytes cannot be
	// parsed as a PDF file.
	ErrDocumentCorrupt = errors.New("document is corrupt")

	// ErrPageIndexOutOfRange is returned for page indices which are
	// negative or not less than the number of pages.
	ErrPageIndexOutOfRange = errors.New("page index out of range")
)

// PageIndexError reports an invalid page index.
type PageIndexError struct {
	Index    int
	NumPages int
}

func (err *PageIndexError) Error() string {
	return fmt.Sprintf("page index %d out of range [0, %d)", err.Index, err.NumPages)
}

// Unwrap returns [ErrPageIndexOutOfRange].
func (err *PageIndexError) Unwrap() error {
	return ErrPageIndexOutOfRange
}

// CheckIndex returns a [*PageIndexError] if idx is not a valid index for a
// document with numPages pages.
func CheckIndex(idx, numPages int) error {
	if idx < 0 || idx >= numPages {
		return &PageIndexError{Index: idx, NumPages: numPages}
	}
	return nil
}

// Renderer renders one page of a PDF file.
//
// The returned image covers the visible area of the page (the crop box),
// rotated as the page is displayed, at the given resolution.
type Renderer interface {
	RenderPage(ctx context.Context, data []byte, pageIndex int, dpi float64) (image.Image, error)
}

// Options configures a [Document].
type Options struct {
	// Renderer is used to render pages.
	// If nil, [DefaultRenderer] is called.
	Renderer Renderer

	// Projection fixes the zoom levels and the base scale.
	// If nil, [zoom.Default] is used.
	Projection *zoom.Projection
}

// Document is a loaded PDF file.
type Document struct {
	data     []byte
	numPages int
	renderer Renderer
	proj     *zoom.Projection

	mu    sync.Mutex
	r     pdf.Getter
	pages map[int]*Page
}

// Open parses the PDF file in data.
// The Document keeps a reference to data, which must not be modified.
func Open(data []byte, opt *Options) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentCorrupt, err)
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentCorrupt, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrDocumentCorrupt)
	}

	doc := &Document{
		data:     data,
		numPages: n,
		r:        r,
		pages:    make(map[int]*Page),
		proj:     zoom.Default,
	}
	if opt != nil {
		doc.renderer = opt.Renderer
		if opt.Projection != nil {
			doc.proj = opt.Projection
		}
	}
	if doc.renderer == nil {
		doc.renderer = DefaultRenderer()
	}

	logging.Logger().Debug("document opened",
		"pages", n, "bytes", len(data), "version", pdf.GetVersion(r).String())
	return doc, nil
}

// NumPages returns the number of pages in the document.
func (d *Document) NumPages() int {
	return d.numPages
}

// Data returns the bytes of the PDF file.
// The caller must not modify the returned slice.
func (d *Document) Data() []byte {
	return d.data
}

// Projection returns the zoom projection used by the document.
func (d *Document) Projection() *zoom.Projection {
	return d.proj
}

// Page returns the facts about page idx (0-based).
func (d *Document) Page(idx int) (*Page, error) {
	if err := CheckIndex(idx, d.numPages); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pages[idx]; ok {
		return p, nil
	}
	info, err := pdfpage.Read(d.r, idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentCorrupt, err)
	}
	w, h := info.Size()
	p := &Page{
		Index:  idx,
		Box:    info.Box,
		Rotate: info.Rotate,
		Width:  w,
		Height: h,
	}
	d.pages[idx] = p
	return p, nil
}

// RenderPage renders page idx at zoom level z.
// Zoom levels outside the range of the document's projection are clamped.
func (d *Document) RenderPage(ctx context.Context, idx, z int) (*Frame, error) {
	page, err := d.Page(idx)
	if err != nil {
		return nil, err
	}
	z = d.proj.Clamp(z)
	dpi := d.proj.DPI(z)

	start := time.Now()
	img, err := d.renderer.RenderPage(ctx, d.data, idx, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", idx, err)
	}
	b := img.Bounds()
	logging.Logger().Debug("page rendered",
		"page", idx, "zoom", z, "dpi", dpi,
		"width", b.Dx(), "height", b.Dy(), "elapsed", time.Since(start))

	return &Frame{
		Image:  img,
		Page:   page,
		Zoom:   z,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// Page holds the facts about one page.  Page values are immutable.
type Page struct {
	// Index is the 0-based page number.
	Index int

	// Box is the visible area of the page in default user space.
	Box pdf.Rectangle

	// Rotate is the clockwise display rotation in degrees.
	Rotate int

	// Width and Height give the size of the displayed page in PDF points,
	// after rotation.
	Width, Height float64
}

// BaseSize returns the size of the page in base space pixels.
func (p *Page) BaseSize(proj *zoom.Projection) (width, height float64) {
	s := proj.BaseScale()
	return p.Width * s, p.Height * s
}

// Bounds returns the area covered by the page in base space.
func (p *Page) Bounds(proj *zoom.Projection) rect.Rect {
	w, h := p.BaseSize(proj)
	return rect.Rect{URx: w, URy: h}
}

// PixelSize returns the expected size in pixels of a rendering of the
// page at zoom level z.
func (p *Page) PixelSize(proj *zoom.Projection, z int) (width, height int) {
	s := proj.ScaleFor(z)
	return pixels(p.Width * s), pixels(p.Height * s)
}

func pixels(x float64) int {
	return max(1, int(math.Ceil(x-1e-6)))
}

// Frame is a rendered page.  Frames are never modified after creation.
type Frame struct {
	Image image.Image
	Page  *Page
	Zoom  int

	// Width and Height give the size of Image in pixels.
	Width, Height int
}
