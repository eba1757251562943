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

// Command pdf-markup draws annotations onto a page of a PDF file.
//
// Annotations are read from a JSON file, with coordinates given in pixels
// of the page rendered at 72 dpi, origin in the top-left corner.  The
// annotated page can be written as a new PDF file and as a PNG preview.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/term"

	"seehuhn.de/go/markup"
	"seehuhn.de/go/markup/annot"
	"seehuhn.de/go/markup/export"
	"seehuhn.de/go/markup/internal/buildinfo"
	"seehuhn.de/go/markup/internal/profile"
	"seehuhn.de/go/markup/logging"
	"seehuhn.de/go/markup/preview"
	"seehuhn.de/go/markup/raster"
)

// config holds all command-line flag values.
type config struct {
	page        int
	zoom        int
	annotations string
	calibrate   string
	labels      bool
	output      string
	png         string
	renderer    string
	force       bool
	metadata    bool
	title       string
	cpuprofile  string
	memprofile  string
}

var errUsage = errors.New("invalid usage")

func main() {
	var cfg config
	flag.IntVar(&cfg.page, "page", 1, "page `number` to annotate (1-based)")
	flag.IntVar(&cfg.zoom, "zoom", 0, "zoom `level` for the preview image")
	flag.StringVar(&cfg.annotations, "annotations", "", "read annotations from JSON `file`")
	flag.StringVar(&cfg.calibrate, "calibrate", "", "length scale as `pixels=length`, e.g. 100=20m")
	flag.BoolVar(&cfg.labels, "labels", false, "add calibrated lengths to the labels")
	flag.StringVar(&cfg.output, "o", "", "write the annotated page to PDF `file` (- for stdout)")
	flag.StringVar(&cfg.png, "png", "", "write a preview image to PNG `file` (- for stdout)")
	flag.StringVar(&cfg.renderer, "renderer", "auto", "page renderer: auto, gs or vector")
	flag.BoolVar(&cfg.force, "f", false, "overwrite output files if they exist")
	flag.BoolVar(&cfg.metadata, "metadata", false, "add XMP metadata to the output")
	flag.StringVar(&cfg.title, "title", "", "document title for the metadata")
	flag.StringVar(&cfg.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	flag.StringVar(&cfg.memprofile, "memprofile", "", "write memory profile to `file`")
	verbose := flag.Bool("v", false, "log debug messages")
	version := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pdf-markup - annotate and measure a page of a PDF file\n")
		fmt.Fprintf(os.Stderr, "%s\n\n", buildinfo.Short("pdf-markup"))
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  pdf-markup [options] <file.pdf>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  pdf-markup -annotations plan.json -o plan-marked.pdf plan.pdf\n")
		fmt.Fprintf(os.Stderr, "  pdf-markup -page 2 -calibrate 100=20m -labels -annotations a.json -o out.pdf in.pdf\n")
		fmt.Fprintf(os.Stderr, "  pdf-markup -zoom 1 -annotations a.json -png preview.png in.pdf\n")
	}
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Short("pdf-markup"))
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, cfg, flag.Arg(0))
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdf-markup:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, inputFile string) error {
	stop, err := profile.Start(cfg.cpuprofile, cfg.memprofile)
	if err != nil {
		return err
	}
	defer stop()

	if cfg.output == "" && cfg.png == "" && cfg.calibrate == "" && cfg.annotations == "" {
		return fmt.Errorf("%w: nothing to do (use -o, -png or -annotations)", errUsage)
	}
	if cfg.output == "-" && cfg.png == "-" {
		return fmt.Errorf("%w: -o and -png cannot both write to stdout", errUsage)
	}
	renderer, ok := raster.RendererByName(cfg.renderer)
	if !ok {
		return fmt.Errorf("%w: unknown renderer %q", errUsage, cfg.renderer)
	}

	var pixels float64
	var lengthSpec string
	if cfg.calibrate != "" {
		pixels, lengthSpec, err = parseCalibration(cfg.calibrate)
		if err != nil {
			return err
		}
	}

	var annotations []annot.Geometry
	if cfg.annotations != "" {
		annotations, err = readAnnotations(cfg.annotations)
		if err != nil {
			return err
		}
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return err
	}
	s, err := markup.Open(ctx, data, &markup.Options{
		PageIndex: cfg.page - 1,
		Zoom:      cfg.zoom,
		Renderer:  renderer,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", inputFile, err)
	}
	defer s.Close()

	if lengthSpec != "" {
		if _, err := s.Calibrate(pixels, lengthSpec); err != nil {
			return err
		}
	}

	for i, g := range annotations {
		if c, isCloud := g.(*annot.Cloud); isCloud && len(c.Outline) == 0 {
			_, err = s.AddCloud(c.Source, c.Closed, c.Style)
		} else {
			_, err = s.Add(g)
		}
		if err != nil {
			return fmt.Errorf("annotation %d: %w", i+1, err)
		}
	}

	for i, g := range s.Annotations() {
		if g.Styling().Measure {
			fmt.Fprintf(os.Stderr, "annotation %d: %s\n", i+1, s.MeasureLength(g))
		}
	}

	if cfg.output != "" {
		pdfData, err := s.Export(&export.Options{
			LabelLengths: cfg.labels,
			Metadata:     cfg.metadata,
			Title:        cfg.title,
		})
		if err != nil {
			return err
		}
		err = writeOutput(cfg.output, cfg.force, func(w io.Writer) error {
			_, err := w.Write(pdfData)
			return err
		})
		if err != nil {
			return err
		}
	}

	if cfg.png != "" {
		img, err := s.Preview(&preview.Options{LabelLengths: cfg.labels})
		if err != nil {
			return err
		}
		err = writeOutput(cfg.png, cfg.force, func(w io.Writer) error {
			return png.Encode(w, img)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// parseCalibration splits a calibration argument of the form
// "<pixels>=<length>".
func parseCalibration(arg string) (float64, string, error) {
	pxPart, lengthPart, found := strings.Cut(arg, "=")
	if !found {
		return 0, "", fmt.Errorf("%w: calibration %q is not of the form pixels=length", errUsage, arg)
	}
	px, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(pxPart), "px"), 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: calibration %q: invalid pixel count", errUsage, arg)
	}
	return px, strings.TrimSpace(lengthPart), nil
}

func readAnnotations(name string) ([]annot.Geometry, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	annotations, err := annot.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return annotations, nil
}

// writeOutput writes binary data to a file, or to stdout if name is "-".
// Binary data is never written to a terminal.
func writeOutput(name string, force bool, write func(io.Writer) error) error {
	if name == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("%w: refusing to write binary data to a terminal", errUsage)
		}
		return write(os.Stdout)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if force {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(name, flags, 0666)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("file %s already exists (use -f to overwrite)", name)
		}
		return err
	}

	err = write(file)
	if err != nil {
		file.Close()
		os.Remove(name)
		return err
	}
	return file.Close()
}
