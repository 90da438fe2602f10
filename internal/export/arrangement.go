// Package export writes stowage state to the formats the ground and hatch
// crews consume: the arrangement CSV and spreadsheet, the printable return
// manifest, QR return labels and a DXF face view per container.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/orbitlogix/stowage/internal/model"
)

// arrangementHeader is the exact header row of the arrangement export. The
// coordinate cells themselves contain commas, so rows are written raw rather
// than through a quoting CSV writer — the consumer parses the parentheses.
const arrangementHeader = "Item ID,Container ID,Coordinates (W1,D1,H1),(W2,D2,H2)"

// WriteArrangementCSV writes one row per placed item. Coordinates keep each
// value's own shortest decimal representation.
func WriteArrangementCSV(w io.Writer, items []model.Item) error {
	if _, err := fmt.Fprintln(w, arrangementHeader); err != nil {
		return err
	}
	for _, it := range items {
		if !it.Placed() {
			continue
		}
		if _, err := fmt.Fprintln(w, arrangementRow(it)); err != nil {
			return err
		}
	}
	return nil
}

func arrangementRow(it model.Item) string {
	s, e := it.Position.Start, it.Position.End
	return fmt.Sprintf("%s,%s,(%s,%s,%s),(%s,%s,%s)",
		it.ItemID, it.ContainerID,
		fnum(s.Width), fnum(s.Depth), fnum(s.Height),
		fnum(e.Width), fnum(e.Depth), fnum(e.Height))
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportArrangementXLSX writes the arrangement as a spreadsheet: one row per
// placed item with start and end corners in separate columns.
func ExportArrangementXLSX(path string, items []model.Item) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Item ID", "Container ID", "W1", "D1", "H1", "W2", "D2", "H2"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, it := range items {
		if !it.Placed() {
			continue
		}
		s, e := it.Position.Start, it.Position.End
		values := []interface{}{
			it.ItemID, it.ContainerID,
			s.Width, s.Depth, s.Height,
			e.Width, e.Depth, e.Height,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	return f.SaveAs(path)
}
