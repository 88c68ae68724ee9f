package payslip

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"payledger/internal/domain/reconcile"
)

type Renderer struct {
	Branding Branding
}

func NewRenderer(branding Branding) *Renderer {
	return &Renderer{Branding: branding}
}

// Render draws the payslip for result and returns the PDF bytes.
func (r *Renderer) Render(result reconcile.Result) ([]byte, error) {
	return Draw(BuildSheet(result, r.Branding))
}

var historyWidths = [6]float64{10, 34, 30, 40, 32, 44}

func Draw(sheet Sheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(sheet.Title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(sheet.Title))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr("Period: "+sheet.Period))
	pdf.Ln(10)

	fields := func(heading string, items []Field) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, tr(heading))
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, f := range items {
			pdf.CellFormat(45, 6, tr(f.Label), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(f.Value), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
	fields("Employer", sheet.Company)
	fields("Employee", sheet.Identity)
	fields("Bank Details", sheet.Bank)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Earnings")
	pdf.Ln(8)
	for _, row := range sheet.Earnings {
		style := ""
		if row.Emphasis {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(120, 7, tr(row.Label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(70, 7, tr(row.Amount), "B", 1, "R", false, 0, "")
	}

	if len(sheet.History) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Transaction History")
		pdf.Ln(8)
		pdf.SetFillColor(235, 235, 235)
		pdf.SetFont("Helvetica", "B", 9)
		historyRow(pdf, tr, HistoryHeader, true)
		pdf.SetFont("Helvetica", "", 9)
		for _, h := range sheet.History {
			historyRow(pdf, tr, h, false)
		}
	}

	if sheet.Footer != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(0, 5, tr(sheet.Footer), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}

func historyRow(pdf *gofpdf.Fpdf, tr func(string) string, h HistoryRow, fill bool) {
	cells := [6]string{h.Index, h.ID, h.Date, h.Type, h.Mode, h.Amount}
	for i, c := range cells {
		align := "L"
		if i == len(cells)-1 {
			align = "R"
		}
		ln := 0
		if i == len(cells)-1 {
			ln = 1
		}
		pdf.CellFormat(historyWidths[i], 7, tr(c), "1", ln, align, fill, 0, "")
	}
}
