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

// Package logging holds the structured logger used by the markup packages.
//
// All packages log through [Logger].  By default every record is discarded;
// a command line tool or test installs its own handler with [SetLogger].
package logging

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// SetLogger installs the logger used by all markup packages.
// Passing nil restores the default, which discards all output.
//
// SetLogger is safe for concurrent use.
//
// Example:
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = slog.New(slog.DiscardHandler)
		logger.CompareAndSwap(nil, l)
		l = logger.Load()
	}
	return l
}
