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
	"time"

	"golang.org/x/text/language"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/xmp"
)

// Producer is recorded in the metadata of exported files.
const Producer = "seehuhn.de/go/markup"

// pdfNamespace is the XMP namespace for PDF properties.
type pdfNamespace struct {
	_        xmp.Namespace `xmp:"http://ns.adobe.com/pdf/1.3/"`
	_        xmp.Prefix    `xmp:"pdf"`
	Producer xmp.AgentName
}

// writeMetadata attaches an XMP packet and a document information
// dictionary to the output.
func writeMetadata(out *pdf.Writer, title string) error {
	now := time.Now()

	dc := &xmp.DublinCore{}
	if title != "" {
		dc.Title.Set(language.MustParse("x-default"), title)
	}
	basic := &xmp.Basic{}
	basic.ModifyDate = xmp.NewDate(now)
	pdfInfo := &pdfNamespace{}
	pdfInfo.Producer = xmp.NewAgentName(Producer)

	packet := xmp.NewPacket()
	packet.Set(dc, basic, pdfInfo)

	ref := out.Alloc()
	stm, err := out.OpenStream(ref, pdf.Dict{
		"Type":    pdf.Name("Metadata"),
		"Subtype": pdf.Name("XML"),
	})
	if err != nil {
		return err
	}
	err = packet.Write(stm, &xmp.PacketOptions{})
	if err != nil {
		stm.Close()
		return err
	}
	err = stm.Close()
	if err != nil {
		return err
	}
	out.GetMeta().Catalog.Metadata = ref

	out.GetMeta().Info = &pdf.Info{
		Title:    pdf.TextString(title),
		Producer: pdf.TextString(Producer),
	}
	return nil
}
