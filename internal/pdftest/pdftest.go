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

// Package pdftest writes small PDF files for use in tests.
package pdftest

import (
	"bytes"
	"io"

	"seehuhn.de/go/pdf"
)

// Page describes one page of a test document.
type Page struct {
	MediaBox pdf.Rectangle
	CropBox  *pdf.Rectangle
	Rotate   int

	// Content is the content stream of the page.
	Content string

	// ContentParts, if non-empty, replaces Content.  Each part is written
	// as a separate stream and /Contents refers to an indirect array of
	// these streams.
	ContentParts []string

	// Resources is used as the page's resource dictionary, if non-nil.
	Resources pdf.Dict

	// Forms maps XObject names to the content streams of form XObjects.
	// The forms cover the media box and are added to the page resources.
	Forms map[pdf.Name]string
}

// A4 is a portrait A4 page with an empty content stream.
var A4 = Page{MediaBox: pdf.Rectangle{URx: 595, URy: 842}}

// Write returns a PDF file containing the given pages.
func Write(pages ...Page) ([]byte, error) {
	buf := &bytes.Buffer{}
	out, err := pdf.NewWriter(buf, pdf.V1_7, nil)
	if err != nil {
		return nil, err
	}

	root := out.Alloc()
	kids := make(pdf.Array, len(pages))
	for i, p := range pages {
		contentRef := out.Alloc()
		if len(p.ContentParts) > 0 {
			parts := make(pdf.Array, len(p.ContentParts))
			for j, body := range p.ContentParts {
				ref := out.Alloc()
				if err := writeStream(out, ref, body); err != nil {
					return nil, err
				}
				parts[j] = ref
			}
			if err := out.Put(contentRef, parts); err != nil {
				return nil, err
			}
		} else if err := writeStream(out, contentRef, p.Content); err != nil {
			return nil, err
		}

		res := pdf.Dict{}
		for k, v := range p.Resources {
			res[k] = v
		}
		if len(p.Forms) > 0 {
			xObjects := pdf.Dict{}
			for name, body := range p.Forms {
				ref := out.Alloc()
				formDict := pdf.Dict{
					"Type":     pdf.Name("XObject"),
					"Subtype":  pdf.Name("Form"),
					"FormType": pdf.Integer(1),
					"BBox":     &p.MediaBox,
				}
				if err := writeStreamDict(out, ref, formDict, body); err != nil {
					return nil, err
				}
				xObjects[name] = ref
			}
			res["XObject"] = xObjects
		}
		dict := pdf.Dict{
			"Type":      pdf.Name("Page"),
			"Parent":    root,
			"MediaBox":  &p.MediaBox,
			"Resources": res,
			"Contents":  contentRef,
		}
		if p.CropBox != nil {
			dict["CropBox"] = p.CropBox
		}
		if p.Rotate != 0 {
			dict["Rotate"] = pdf.Integer(p.Rotate)
		}

		ref := out.Alloc()
		if err := out.Put(ref, dict); err != nil {
			return nil, err
		}
		kids[i] = ref
	}

	err = out.Put(root, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Integer(len(pages)),
	})
	if err != nil {
		return nil, err
	}
	out.GetMeta().Catalog.Pages = root

	if err := out.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeStream(out *pdf.Writer, ref pdf.Reference, body string) error {
	return writeStreamDict(out, ref, nil, body)
}

func writeStreamDict(out *pdf.Writer, ref pdf.Reference, dict pdf.Dict, body string) error {
	stm, err := out.OpenStream(ref, dict, pdf.FilterCompress{})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(stm, body); err != nil {
		stm.Close()
		return err
	}
	return stm.Close()
}
