package export

import (
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/orbitlogix/stowage/internal/lifecycle"
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	headerHeight = 12.0
	lineHeight   = 6.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// ExportManifestPDF renders a return plan as a printable manifest: the
// summary block, the included items table and the move steps.
func ExportManifestPDF(path string, plan lifecycle.ReturnPlan) error {
	if len(plan.Manifest.ReturnItems) == 0 {
		return fmt.Errorf("no items in return plan")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, marginTop)
	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Return Manifest — %s", plan.Manifest.UndockingContainerID)
	pdf.CellFormat(contentWidth, headerHeight, title, "", 1, "L", false, 0, "")

	// Summary
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(marginLeft)
	summary := fmt.Sprintf("Undocking date: %s | Items: %d | Total mass: %.2f kg | Total volume: %.0f cm3",
		plan.Manifest.UndockingDate, len(plan.Manifest.ReturnItems),
		plan.Manifest.TotalWeight, plan.Manifest.TotalVolume)
	pdf.CellFormat(contentWidth, lineHeight, summary, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Items table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetX(marginLeft)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(40, lineHeight, "Item ID", "1", 0, "L", true, 0, "")
	pdf.CellFormat(90, lineHeight, "Name", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, lineHeight, "Reason", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range plan.Manifest.ReturnItems {
		pdf.SetX(marginLeft)
		pdf.CellFormat(40, lineHeight, it.ItemID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(90, lineHeight, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, lineHeight, it.Reason, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Move steps
	if len(plan.Moves) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetX(marginLeft)
		pdf.CellFormat(contentWidth, lineHeight, "Move Steps", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, m := range plan.Moves {
			pdf.SetX(marginLeft)
			line := fmt.Sprintf("%d. %s (%s): %s -> %s", m.Step, m.ItemName, m.ItemID, m.FromContainer, m.ToContainer)
			pdf.CellFormat(contentWidth, lineHeight, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	// Retrieval steps
	if len(plan.RetrievalSteps) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetX(marginLeft)
		pdf.CellFormat(contentWidth, lineHeight, "Retrieval Steps", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, s := range plan.RetrievalSteps {
			pdf.SetX(marginLeft)
			line := fmt.Sprintf("%d. %s %s (%s)", s.Step, s.Action, s.ItemName, s.ItemID)
			pdf.CellFormat(contentWidth, lineHeight, line, "", 1, "L", false, 0, "")
		}
	}

	return pdf.OutputFileAndClose(path)
}
