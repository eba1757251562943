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

// Package overlay keeps the raster image of a page on display while the
// zoom level changes.
//
// The overlay covers a fixed rectangle in base space.  A zoom change only
// changes the pixel density of the image, never the covered rectangle, so
// annotation geometry in base space stays valid.
//
// Zoom changes trigger asynchronous renders.  Every request gets a
// sequence number, and a result is shown only if no newer request has
// been made in the meantime.  Superseded results are dropped.
package overlay

import (
	"context"
	"sync"
	"sync/atomic"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/markup/logging"
	"seehuhn.de/go/markup/raster"
	"seehuhn.de/go/markup/zoom"
)

// FrameSource renders pages.  It is implemented by [*raster.Document].
type FrameSource interface {
	RenderPage(ctx context.Context, pageIndex, z int) (*raster.Frame, error)
}

// Options configures an [Overlay].
type Options struct {
	// Projection fixes the supported zoom range.
	// If nil, [zoom.Default] is used.
	Projection *zoom.Projection

	// OnFrame, if set, is called with every frame which is put on display.
	// Calls may come from different goroutines, but never concurrently.
	OnFrame func(*raster.Frame)

	// OnError, if set, is called when a render request fails.
	// The frame on display is not changed.
	OnError func(z int, err error)
}

// shown is the state on display.  It is replaced, never modified.
type shown struct {
	frame  *raster.Frame
	bounds rect.Rect
	seq    uint64
}

// Overlay shows the raster image of one page.
type Overlay struct {
	src  FrameSource
	page int
	proj *zoom.Projection

	onFrame func(*raster.Frame)
	onError func(int, error)

	// requested is the sequence number of the most recent request.
	requested atomic.Uint64
	current   atomic.Pointer[shown]

	// deliverMu serialises the OnFrame callbacks.
	deliverMu sync.Mutex
	inFlight  sync.WaitGroup
}

// New creates an overlay for page pageIndex of src.
// Use [Overlay.SetFrame] to put the first frame on display.
func New(src FrameSource, pageIndex int, opt *Options) *Overlay {
	o := &Overlay{
		src:  src,
		page: pageIndex,
		proj: zoom.Default,
	}
	if opt != nil {
		if opt.Projection != nil {
			o.proj = opt.Projection
		}
		o.onFrame = opt.OnFrame
		o.onError = opt.OnError
	}
	return o
}

// SetFrame puts a frame on display and fixes the base space rectangle
// covered by the overlay.  SetFrame counts as a new request: renders
// started earlier are dropped when they complete.
func (o *Overlay) SetFrame(f *raster.Frame, boundsAtZoomZero rect.Rect) {
	seq := o.requested.Add(1)
	s := &shown{frame: f, bounds: boundsAtZoomZero, seq: seq}
	o.current.Store(s)
	o.notify(s)
}

// OnZoomChanged requests a new frame for zoom level z.
// The level is clamped to the supported range.  The frame is rendered in
// the background; use [Overlay.Wait] to wait for it.  Frames which
// complete before the first call to [Overlay.SetFrame] are dropped.
//
// The returned value is the sequence number of the request.
func (o *Overlay) OnZoomChanged(ctx context.Context, z int) uint64 {
	z = o.proj.Clamp(z)
	seq := o.requested.Add(1)

	o.inFlight.Add(1)
	go func() {
		defer o.inFlight.Done()
		frame, err := o.src.RenderPage(ctx, o.page, z)
		if err != nil {
			logging.Logger().Debug("render failed", "zoom", z, "seq", seq, "error", err)
			if o.onError != nil && o.requested.Load() == seq {
				o.onError(z, err)
			}
			return
		}
		o.deliver(seq, frame)
	}()
	return seq
}

// deliver puts the result of request seq on display, unless a newer
// request has been made.  It reports whether the frame was applied.
func (o *Overlay) deliver(seq uint64, frame *raster.Frame) bool {
	for {
		cur := o.current.Load()
		if seq != o.requested.Load() || cur == nil || cur.seq >= seq {
			logging.Logger().Debug("stale frame dropped",
				"seq", seq, "zoom", frame.Zoom, "latest", o.requested.Load())
			return false
		}
		next := &shown{frame: frame, bounds: cur.bounds, seq: seq}
		if o.current.CompareAndSwap(cur, next) {
			o.notify(next)
			return true
		}
	}
}

func (o *Overlay) notify(s *shown) {
	if o.onFrame == nil {
		return
	}
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()
	// A newer frame may have been stored while we waited for the lock.
	if o.current.Load() != s {
		return
	}
	o.onFrame(s.frame)
}

// Frame returns the frame on display, or nil before the first call to
// [Overlay.SetFrame].
func (o *Overlay) Frame() *raster.Frame {
	s := o.current.Load()
	if s == nil {
		return nil
	}
	return s.frame
}

// Bounds returns the base space rectangle covered by the overlay.
func (o *Overlay) Bounds() rect.Rect {
	s := o.current.Load()
	if s == nil {
		return rect.Rect{}
	}
	return s.bounds
}

// Zoom returns the zoom level of the frame on display.
func (o *Overlay) Zoom() int {
	s := o.current.Load()
	if s == nil || s.frame == nil {
		return 0
	}
	return s.frame.Zoom
}

// Wait blocks until all renders started by [Overlay.OnZoomChanged] have
// completed.
func (o *Overlay) Wait() {
	o.inFlight.Wait()
}
