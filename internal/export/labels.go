package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/orbitlogix/stowage/internal/lifecycle"
)

// LabelInfo is the payload encoded into each return label's QR code.
type LabelInfo struct {
	ItemID        string `json:"itemId"`
	Name          string `json:"name"`
	Reason        string `json:"reason"`
	FromContainer string `json:"fromContainer,omitempty"`
	ToContainer   string `json:"toContainer"`
}

// Label layout constants for Avery 5160-compatible sheets (3 columns, 10
// rows per page on US Letter).
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportReturnLabels generates a PDF of QR-coded stickers, one per item in
// the return plan, so a handheld scanner can confirm each move at the
// hatch.
func ExportReturnLabels(path string, plan lifecycle.ReturnPlan) error {
	if len(plan.Manifest.ReturnItems) == 0 {
		return fmt.Errorf("no items to generate labels for")
	}

	from := make(map[string]string, len(plan.Moves))
	for _, m := range plan.Moves {
		from[m.ItemID] = m.FromContainer
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, it := range plan.Manifest.ReturnItems {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols
		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		info := LabelInfo{
			ItemID:        it.ItemID,
			Name:          it.Name,
			Reason:        it.Reason,
			FromContainer: from[it.ItemID],
			ToContainer:   plan.Manifest.UndockingContainerID,
		}
		if err := renderLabel(pdf, x, y, i, info); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", it.ItemID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, idx int, info LabelInfo) error {
	// Light border as a cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.ItemID, idx)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, opts, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4, truncate(pdf, info.Name, textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 4, info.ItemID, "", 1, "L", false, 0, "")
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 4, info.Reason, "", 1, "L", false, 0, "")
	pdf.SetXY(textX, y+labelPadding+13)
	pdf.CellFormat(textW, 4, "-> "+info.ToContainer, "", 1, "L", false, 0, "")

	return nil
}

// truncate shortens s with an ellipsis until it fits the given width.
func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
