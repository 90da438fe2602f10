package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/orbitlogix/stowage/internal/model"
)

// ExportFaceViewDXF draws the D=0 face view of a container: the container
// outline and each placed item's projection onto the W/H plane, as a DXF
// drawing the hatch crew can open in any CAD viewer. Items deeper in the
// container simply overlap in the projection.
func ExportFaceViewDXF(path string, c model.Container, items []model.Item) error {
	d := dxf.NewDrawing()

	if _, err := d.AddLayer("CONTAINER", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add container layer: %w", err)
	}
	drawRect(d, 0, 0, c.Width, c.Height)

	if _, err := d.AddLayer("CARGO", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add cargo layer: %w", err)
	}
	for _, it := range items {
		if it.ContainerID != c.ContainerID || it.Position == nil {
			continue
		}
		b := it.Position.Box()
		drawRect(d, b.X, b.Y, b.W, b.H)
	}

	return d.SaveAs(path)
}

// drawRect emits the four edges of an axis-aligned rectangle on the current
// layer.
func drawRect(d *drawing.Drawing, x, y, w, h float64) {
	d.Line(x, y, 0, x+w, y, 0)
	d.Line(x+w, y, 0, x+w, y+h, 0)
	d.Line(x+w, y+h, 0, x, y+h, 0)
	d.Line(x, y+h, 0, x, y, 0)
}
