package render

import (
	"strings"

	"github.com/fogleman/gg"

	"github.com/iliyamo/venue-seatmap/internal/geometry"
	"github.com/iliyamo/venue-seatmap/internal/model"
)

const (
	shapeLabelSize = 12.0
	shapeIconSize  = 10.0
)

// paintShape draws a decorative object: a line, box or disc with an
// optional icon tag above its label.
func (r *Renderer) paintShape(dc *gg.Context, obj model.SceneObject, p model.ShapeProps, sc Scene) {
	w, h := geometry.ShapeSize(p.Shape)
	if sc.HoverObject == obj.ID {
		drawShadow(dc, geometry.Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h}, 4)
	}

	switch p.Shape {
	case model.ShapeLine:
		setHex(dc, colorShapeLine)
		dc.DrawRectangle(-w/2, -h/2, w, h)
		dc.Fill()
		return
	case model.ShapeCircle:
		dc.DrawCircle(0, 0, w/2)
	default:
		dc.DrawRoundedRectangle(-w/2, -h/2, w, h, 4)
	}
	setHex(dc, colorShapeFill)
	dc.FillPreserve()
	setHex(dc, colorShapeLine)
	setLineWidth(dc, 1)
	dc.Stroke()

	label := p.Label
	if label == "" {
		label = p.ObjectName
	}
	labelY := 0.0
	if p.Icon != "" {
		icon := strings.ToUpper(p.Icon)
		r.fitLabel(dc, icon, shapeIconSize, w-8)
		setHex(dc, colorMuted)
		dc.DrawStringAnchored(icon, 0, -8, 0.5, 0.5)
		labelY = 8
	}
	if label != "" {
		r.fitLabel(dc, label, shapeLabelSize, w-8)
		setHex(dc, colorLabel)
		dc.DrawStringAnchored(label, 0, labelY, 0.5, 0.5)
	}
}

func (r *Renderer) paintText(dc *gg.Context, p model.TextProps) {
	if p.Text == "" {
		return
	}
	dc.SetFontFace(r.fonts.face(geometry.TextFontSize(p.Size)))
	setHex(dc, colorLabel)
	dc.DrawStringAnchored(p.Text, 0, 0, 0.5, 0.35)
}
