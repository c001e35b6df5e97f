// Package pdftest builds small, well formed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Page describes one page of a generated document, in points
type Page struct {
	Width  float64
	Height float64
	Rotate int
	// Label is drawn on the page when set
	Label string
}

// Letter is a US Letter portrait page
var Letter = Page{Width: 612, Height: 792}

// Document renders pages into a PDF with a valid cross-reference table
func Document(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	// 1: catalog, 2: page tree, 3: font, then a page and a content stream per page
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, p := range pages {
		label := p.Label
		if label == "" {
			label = fmt.Sprintf("Page %d", i+1)
		}
		content := fmt.Sprintf("0.2 0.4 0.8 rg 36 36 %.2f %.2f re f BT /F1 36 Tf 72 %.2f Td (%s) Tj ET",
			p.Width/2, p.Height/3, p.Height-108, label)

		rotate := ""
		if p.Rotate != 0 {
			rotate = fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.2f %.2f]%s /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			p.Width, p.Height, rotate, 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// Pages is a shorthand for a document of n identical pages
func Pages(n int, page Page) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = page
	}
	return Document(pages...)
}
