package render

import (
	"github.com/fogleman/gg"

	"github.com/iliyamo/venue-seatmap/internal/geometry"
	"github.com/iliyamo/venue-seatmap/internal/model"
)

const tableLabelSize = 12.0

// paintTable draws a table and its seats.  A table is sold as a unit, so
// the body and every seat share the table's state and color.
func (r *Renderer) paintTable(dc *gg.Context, obj model.SceneObject, p model.TableProps, sc Scene) {
	layout := geometry.TableLayoutFor(p)
	tier, ok := sc.Tiers.Lookup(obj.ID)
	state, fill := resolve(tier, ok, sc.status(obj.ID))
	selected := sc.Selected[obj.ID]

	if sc.HoverObject == obj.ID && !selected {
		if layout.Style == model.TableCircle {
			setHex(dc, colorShadow)
			dc.DrawCircle(3, 4, layout.Radius+geometry.TableSeatRadius)
			dc.Fill()
		} else {
			drawShadow(dc, layout.Bounds.Inset(geometry.TableOuterMargin), geometry.TableSeatRadius)
		}
	}

	for _, s := range layout.Seats {
		paintSeatCircle(dc, s.X, s.Y, geometry.TableSeatRadius, state, fill, false)
	}

	var labelWidth float64
	if layout.Style == model.TableCircle {
		dc.DrawCircle(0, 0, layout.Radius)
		labelWidth = 2*layout.Radius - 8
	} else {
		dc.DrawRoundedRectangle(-layout.Width/2, -layout.Height/2, layout.Width, layout.Height, 6)
		labelWidth = layout.Width - 8
	}
	setHex(dc, fill)
	dc.FillPreserve()
	if selected {
		setHex(dc, colorSelected)
		setLineWidth(dc, selectedLineWidth)
	} else {
		setHex(dc, colorStroke)
		setLineWidth(dc, 1)
	}
	dc.Stroke()

	if p.TableName != "" {
		r.fitLabel(dc, p.TableName, tableLabelSize, labelWidth)
		setHex(dc, colorLabel)
		dc.DrawStringAnchored(p.TableName, 0, 0, 0.5, 0.35)
	}

	switch state {
	case stateTaken:
		drawCross(dc, 0, 0, minBodyExtent(layout)/2, colorGlyph)
	case stateUntiered:
		drawStrike(dc, 0, 0, minBodyExtent(layout)/2)
	}
}

func minBodyExtent(l geometry.TableLayout) float64 {
	if l.Style == model.TableCircle {
		return 2 * l.Radius
	}
	return min(l.Width, l.Height)
}
