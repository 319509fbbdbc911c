package infra

// pdf.go — Close-summary day sheet generation using go-pdf/fpdf.
// One A5 page per closed period:
//   - Business name and business date header
//   - Open vs close cash totals with net figures
//   - Per-machine variance table (expected, counted, difference)
//   - Final net line in bold
//
// The output file is saved to storagePath/period_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"tillpoint/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GeneratePeriodSummaryPDF renders the day sheet for a closed period.
// storagePath is the directory where the PDF will be written (created if
// needed). Returns the absolute path to the generated file.
func GeneratePeriodSummaryPDF(period *model.Period, business *model.Business, entries []model.MachineEntry, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("period_%s.pdf", period.ID.String())
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, business.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Daily Close Summary", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, period.BusinessDate.Format("Mon 02 Jan 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	// ── Open vs close totals ─────────────────────────────────────────────────
	labelW := contentW * 0.5
	valueW := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(labelW, 6, "", "B", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 6, "Open", "B", 0, "R", false, 0, "")
	pdf.CellFormat(valueW, 6, "Close", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	totalRow := func(label string, open decimal.Decimal, close *decimal.Decimal) {
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, "$"+open.StringFixed(2), "", 0, "R", false, 0, "")
		closeStr := "—"
		if close != nil {
			closeStr = "$" + close.StringFixed(2)
		}
		pdf.CellFormat(valueW, 6, closeStr, "", 1, "R", false, 0, "")
	}
	totalRow("Cash in", period.TotalCashInOpen, period.TotalCashInClose)
	totalRow("Cash out", period.TotalCashOutOpen, period.TotalCashOutClose)
	totalRow("ATM cash in", period.CashInAtmOpen, period.CashInAtmClose)
	totalRow("Safe drop", period.SafeDropOpen, period.SafeDropClose)

	pdf.Ln(2)
	if period.Payout != nil {
		pdf.CellFormat(labelW+valueW, 6, "Winner payouts:", "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, "$"+period.Payout.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if period.PhysicalCashCollected != nil {
		pdf.CellFormat(labelW+valueW, 6, "Physical cash collected:", "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, "$"+period.PhysicalCashCollected.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	// ── Per-machine variance table ───────────────────────────────────────────
	col1 := contentW * 0.40 // machine
	col2 := contentW * 0.20 // expected
	col3 := contentW * 0.20 // counted
	col4 := contentW * 0.20 // difference

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Machine", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Expected", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 6, "Counted", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Diff", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for i := range entries {
		e := &entries[i]
		name := e.MachineName
		if len(name) > 24 {
			name = name[:23] + "…"
		}
		expected, diff := "—", "—"
		if e.ExpectedPhysicalCash != nil {
			expected = "$" + e.ExpectedPhysicalCash.StringFixed(2)
		}
		if e.Difference != nil {
			diff = "$" + e.Difference.StringFixed(2)
		}
		pdf.CellFormat(col1, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, expected, "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+e.PhysicalCash.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, diff, "", 1, "R", false, 0, "")
	}

	pdf.Ln(3)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(3)

	// ── Final net ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	finalNet := "—"
	if period.FinalNet != nil {
		finalNet = "$" + period.FinalNet.StringFixed(2)
	}
	pdf.CellFormat(labelW+valueW, 8, "FINAL NET:", "", 0, "L", false, 0, "")
	pdf.CellFormat(valueW, 8, finalNet, "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
