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

// Package ghostscript renders PDF pages by calling the Ghostscript
// command-line tool.
package ghostscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ErrNoGhostscript is returned if the ghostscript command-line tool is not
// available.
var ErrNoGhostscript = errors.New("cannot run ghostscript")

// Renderer renders pages using Ghostscript's png16m device.
// The zero value is ready to use.
type Renderer struct {
	// Command is the name or path of the Ghostscript executable.
	// If empty, "gs" is used.
	Command string
}

func (gs *Renderer) command() string {
	if gs.Command == "" {
		return "gs"
	}
	return gs.Command
}

// RenderPage renders page pageIndex (0-based) of the PDF file in data.
//
// The file is written to a temporary directory, which is removed before
// RenderPage returns.  Cancelling ctx kills the Ghostscript process.
func (gs *Renderer) RenderPage(ctx context.Context, data []byte, pageIndex int, dpi float64) (image.Image, error) {
	if !(dpi > 0) {
		return nil, fmt.Errorf("ghostscript: invalid resolution %g", dpi)
	}

	dir, err := os.MkdirTemp("", "markup-gs")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	pdfName := filepath.Join(dir, "page.pdf")
	pngName := filepath.Join(dir, "page.png")
	err = os.WriteFile(pdfName, data, 0o600)
	if err != nil {
		return nil, err
	}

	pageNo := strconv.Itoa(pageIndex + 1)
	cmd := exec.CommandContext(ctx,
		gs.command(), "-q",
		"-dSAFER", "-dBATCH", "-dNOPAUSE",
		"-sDEVICE=png16m", "-r"+strconv.FormatFloat(dpi, 'f', -1, 64),
		"-dUseCropBox",
		"-dFirstPage="+pageNo, "-dLastPage="+pageNo,
		"-dTextAlphaBits=4", "-dGraphicsAlphaBits=4",
		"-o", pngName,
		pdfName)
	cmd.Dir = dir
	cmd.Stdin = nil
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	out, err := cmd.Output()
	if errors.Is(err, exec.ErrNotFound) {
		return nil, ErrNoGhostscript
	} else if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(stderr.String() + string(out))
		return nil, fmt.Errorf("ghostscript: %w: %s", err, msg)
	}

	fd, err := os.Open(pngName)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	img, err := png.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("ghostscript output: %w", err)
	}
	return img, nil
}

// Available returns true if the ghostscript command-line tool is available
// under the name "gs" and supports the png16m device.
func Available() bool {
	return (&Renderer{}).Available()
}

// Available returns true if the executable named by gs.Command can be run
// and supports the png16m device.  The result is cached per command.
func (gs *Renderer) Available() bool {
	name := gs.command()
	if found, ok := gsFound.Load(name); ok {
		return found.(bool)
	}
	out, err := exec.Command(name, "-h").Output()
	found := err == nil && gsPNGRe.Match(out)
	gsFound.Store(name, found)
	return found
}

var (
	gsPNGRe = regexp.MustCompile(`\bpng16m\b`)
	gsFound sync.Map // command name -> bool
)
