// Package render paints a seat-map scene onto a raster surface.
//
// Every Render is a full redraw: the surface is cleared, the view
// transform (device pixel ratio, pan offset, zoom) is applied, and each
// object is painted in document order in its own local frame.
package render

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/iliyamo/venue-seatmap/internal/geometry"
	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/occupancy"
)

// Scene is everything a frame depends on.
type Scene struct {
	Objects   []model.SceneObject
	Tiers     model.TierIndex
	Occupancy occupancy.Reader
	View      model.ViewState
	Selected  map[string]bool

	// HoverObject is the id of the object under the pointer, if any.
	HoverObject string
	// HoverSeat is the seat under the pointer inside HoverObject, if any.
	HoverSeat *geometry.SeatRef
}

func (sc Scene) status(id string) model.Status {
	if sc.Occupancy == nil {
		return model.StatusAvailable
	}
	return sc.Occupancy.Status(id)
}

// Renderer paints scenes.  It caches font faces and must not be shared
// between goroutines.
type Renderer struct {
	fonts faceCache
}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render redraws the whole surface from sc.
func (r *Renderer) Render(s *Surface, sc Scene) {
	dc := s.dc
	dc.Identity()
	dc.ResetClip()
	setHex(dc, colorBackground)
	dc.Clear()

	zoom := sc.View.Zoom
	if zoom <= 0 || math.IsNaN(zoom) {
		zoom = 1
	}
	dc.Scale(s.dpr, s.dpr)
	dc.Translate(sc.View.Offset.X, sc.View.Offset.Y)
	dc.Scale(zoom, zoom)

	for _, obj := range sc.Objects {
		dc.Push()
		dc.Translate(obj.Position.X, obj.Position.Y)
		if obj.Rotation != 0 {
			dc.Rotate(gg.Radians(obj.Rotation))
		}
		r.paint(dc, obj, sc)
		dc.Pop()
	}
	dc.Identity()
}

func (r *Renderer) paint(dc *gg.Context, obj model.SceneObject, sc Scene) {
	switch p := obj.Properties.(type) {
	case model.SeatsProps:
		r.paintSeats(dc, obj, p, sc)
	case model.TableProps:
		r.paintTable(dc, obj, p, sc)
	case model.ShapeProps:
		r.paintShape(dc, obj, p, sc)
	case model.TextProps:
		r.paintText(dc, p)
	}
}

// fitLabel sets a face for text at size, shrinking it until the text
// fits in avail.  It returns the size used.
func (r *Renderer) fitLabel(dc *gg.Context, text string, size, avail float64) float64 {
	dc.SetFontFace(r.fonts.face(size))
	if avail <= 0 {
		return size
	}
	w, _ := dc.MeasureString(text)
	if w <= avail || w == 0 {
		return size
	}
	shrunk := math.Max(math.Floor(size*avail/w)-1, minFontSize)
	dc.SetFontFace(r.fonts.face(shrunk))
	return shrunk
}

// drawShadow paints a soft offset copy of box behind a hovered object.
func drawShadow(dc *gg.Context, box geometry.Rect, radius float64) {
	setHex(dc, colorShadow)
	dc.DrawRoundedRectangle(box.X+3, box.Y+4, box.Width, box.Height, radius)
	dc.Fill()
}

// drawCross marks a taken seat with an X inside a circle of radius rad.
func drawCross(dc *gg.Context, cx, cy, rad float64, hex string) {
	d := rad * 0.5
	setHex(dc, hex)
	setLineWidth(dc, 1.5)
	dc.DrawLine(cx-d, cy-d, cx+d, cy+d)
	dc.DrawLine(cx-d, cy+d, cx+d, cy-d)
	dc.Stroke()
}

// drawStrike marks an unassigned seat with a single diagonal.
func drawStrike(dc *gg.Context, cx, cy, rad float64) {
	d := rad * 0.6
	setHex(dc, colorMuted)
	setLineWidth(dc, 1)
	dc.DrawLine(cx-d, cy+d, cx+d, cy-d)
	dc.Stroke()
}

// paintSeatCircle draws one seat of a section or table, outline and
// state glyph included.
func paintSeatCircle(dc *gg.Context, cx, cy, rad float64, state seatState, fill string, selected bool) {
	setHex(dc, fill)
	dc.DrawCircle(cx, cy, rad)
	dc.FillPreserve()
	if selected {
		setHex(dc, colorSelected)
		setLineWidth(dc, selectedLineWidth)
	} else {
		setHex(dc, colorStroke)
		setLineWidth(dc, 1)
	}
	dc.Stroke()

	switch state {
	case stateTaken:
		drawCross(dc, cx, cy, rad, colorGlyph)
	case stateUntiered:
		drawStrike(dc, cx, cy, rad)
	}
}

// paintHoverRing draws the focus ring around a hovered seat, colored by
// what a click on it would do.
func paintHoverRing(dc *gg.Context, cx, cy, rad float64, state seatState, fill string) {
	ring := fill
	switch state {
	case stateTaken:
		ring = colorHoverTaken
	case stateUntiered:
		ring = colorHoverNone
	}
	setHex(dc, ring)
	setLineWidth(dc, 2)
	dc.DrawCircle(cx, cy, rad+3)
	dc.Stroke()
	if state == stateTaken {
		drawCross(dc, cx, cy, rad, colorHoverTaken)
	}
}
