package render

import (
	"github.com/fogleman/gg"

	"github.com/iliyamo/venue-seatmap/internal/geometry"
	"github.com/iliyamo/venue-seatmap/internal/model"
)

const (
	sectionHeaderSize = 14.0
	rowLabelSize      = 10.0
)

func (r *Renderer) paintSeats(dc *gg.Context, obj model.SceneObject, p model.SeatsProps, sc Scene) {
	box := geometry.BoundingBox(obj)
	if sc.HoverObject == obj.ID {
		drawShadow(dc, box, 6)
	}
	setHex(dc, colorSectionFill)
	dc.DrawRoundedRectangle(box.X, box.Y, box.Width, box.Height, 6)
	dc.FillPreserve()
	setHex(dc, colorSectionLine)
	setLineWidth(dc, 1)
	dc.Stroke()

	if p.SectionName != "" {
		r.fitLabel(dc, p.SectionName, sectionHeaderSize, box.Width-8)
		setHex(dc, colorLabel)
		dc.DrawStringAnchored(p.SectionName, box.Width/2, -geometry.SeatSize, 0.5, 0.5)
	}

	pitch := geometry.SeatSize + geometry.SeatGap
	rightLabelX := geometry.RowLabelWidth + float64(p.Seats)*pitch - geometry.SeatGap + geometry.RowLabelWidth/2
	dc.SetFontFace(r.fonts.face(rowLabelSize))
	setHex(dc, colorMuted)
	for row := 0; row < p.Rows; row++ {
		label := geometry.RowLabel(row)
		y := geometry.SeatCenter(row, 0).Y
		dc.DrawStringAnchored(label, geometry.RowLabelWidth/2, y, 0.5, 0.35)
		dc.DrawStringAnchored(label, rightLabelX, y, 0.5, 0.35)
	}

	section := obj.SectionID()
	rad := geometry.SeatSize / 2
	var hovered *seatCell
	for row := 0; row < p.Rows; row++ {
		for seat := 0; seat < p.Seats; seat++ {
			id := geometry.SeatID(section, row, seat)
			tier, ok := sc.Tiers.ForSeat(id, obj.ID)
			state, fill := resolve(tier, ok, sc.status(id))
			c := geometry.SeatCenter(row, seat)
			paintSeatCircle(dc, c.X, c.Y, rad, state, fill, sc.Selected[id])
			if sc.HoverSeat != nil && sc.HoverObject == obj.ID && sc.HoverSeat.SeatID == id {
				hovered = &seatCell{center: c, state: state, fill: fill}
			}
		}
	}
	// the ring overlaps neighbours, so it goes on last
	if hovered != nil {
		paintHoverRing(dc, hovered.center.X, hovered.center.Y, rad, hovered.state, hovered.fill)
	}
}

type seatCell struct {
	center model.Point
	state  seatState
	fill   string
}
