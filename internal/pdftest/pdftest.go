// Package pdftest builds tiny but structurally valid PDF documents for
// tests, with correct cross-reference offsets so both strict and relaxed
// readers accept them.
package pdftest

import (
	"bytes"
	"fmt"
)

const (
	// PageWidth and PageHeight are the media box of every generated page,
	// in points (A4).
	PageWidth  = 595.0
	PageHeight = 842.0
)

// MinimalPDF returns a valid single- or multi-page PDF with empty page
// content.
func MinimalPDF(pages int) []byte {
	if pages < 1 {
		pages = 1
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	// Object numbering: 1 catalog, 2 page tree, 3..2+pages page objects,
	// 3+pages..2+2*pages content streams.
	total := 2 + 2*pages
	offsets := make([]int, total+1)

	addObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	kids := &bytes.Buffer{}
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids.WriteString(" ")
		}
		fmt.Fprintf(kids, "%d 0 R", 3+i)
	}

	addObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	addObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), pages))
	for i := 0; i < pages; i++ {
		addObj(3+i, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> /Contents %d 0 R >>",
			PageWidth, PageHeight, 3+pages+i))
	}
	content := "q Q"
	for i := 0; i < pages; i++ {
		addObj(3+pages+i, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= total; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xrefOffset)

	return buf.Bytes()
}
