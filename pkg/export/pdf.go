package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders tables into a landscape schedule-style PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with a title block and table body.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(table.Title), "", 1, "C", false, 0, "")
	}
	if table.Subtitle != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, table.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	widths := columnWidths(table, 277.0)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range table.Headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for i := range table.Headers {
			pdf.CellFormat(widths[i], 7, cell(row, i), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths sizes columns by their longest cell, clamped to the page width.
func columnWidths(table Table, usable float64) []float64 {
	longest := make([]int, len(table.Headers))
	for i, header := range table.Headers {
		longest[i] = len(header)
	}
	for _, row := range table.Rows {
		for i := range table.Headers {
			if l := len(cell(row, i)); l > longest[i] {
				longest[i] = l
			}
		}
	}

	total := 0
	for _, l := range longest {
		total += l
	}
	if total == 0 {
		total = len(longest)
	}

	widths := make([]float64, len(longest))
	for i, l := range longest {
		w := usable * float64(l) / float64(total)
		if min := usable / float64(len(longest)) / 2; w < min {
			w = min
		}
		widths[i] = w
	}

	// Re-normalise after clamping so the row still spans the page.
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	for i := range widths {
		widths[i] = widths[i] * usable / sum
	}
	return widths
}
