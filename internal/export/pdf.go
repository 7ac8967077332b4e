package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"workshop/internal/domain/reports"
)

type PDF struct {
	Formatter Formatter
}

func (r PDF) Render(w io.Writer, report reports.Report) error {
	f := r.Formatter
	t := f.table(report)

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(t.title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range f.header(report) {
		pdf.CellFormat(0, 6, tr(line), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(t.headers))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(231, 48, 48)
	pdf.SetTextColor(255, 255, 255)
	for _, h := range t.headers {
		pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range t.rows {
		for _, cell := range row {
			pdf.CellFormat(colWidth, 7, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for _, cell := range t.total {
		pdf.CellFormat(colWidth, 7, tr(cell), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
