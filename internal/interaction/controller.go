// Package interaction turns pointer and wheel input into pan, zoom,
// hover and selection changes on a seat map.
//
// The Controller is not safe for concurrent use; the viewer session
// drives it from its event loop.
package interaction

import (
	"math"

	"github.com/iliyamo/venue-seatmap/internal/geometry"
	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/occupancy"
)

// Controller owns the view state, the hover target and the selection set.
type Controller struct {
	objects []model.SceneObject
	tiers   model.TierIndex
	occ     occupancy.Reader

	view      model.ViewState
	mode      Mode
	last      model.Point
	hover     *Hover
	selection model.Selection
}

// NewController returns an idle controller with an empty scene.
func NewController(occ occupancy.Reader) *Controller {
	return &Controller{
		occ:   occ,
		view:  model.DefaultView(),
		tiers: model.NewTierIndex(nil),
	}
}

// SetScene installs the objects and tiers of a freshly loaded map.  The
// hover target and the selection belong to the previous map and are
// dropped.
func (c *Controller) SetScene(objects []model.SceneObject, tiers []model.Tier) {
	c.objects = objects
	c.tiers = model.NewTierIndex(tiers)
	c.hover = nil
	c.selection.Clear()
	c.mode = ModeIdle
}

// Objects returns the scene in draw order.
func (c *Controller) Objects() []model.SceneObject { return c.objects }

// Tiers returns the tier index of the scene.
func (c *Controller) Tiers() model.TierIndex { return c.tiers }

// View returns the current pan/zoom.
func (c *Controller) View() model.ViewState { return c.view }

// SetOffset moves the view without changing the zoom.
func (c *Controller) SetOffset(p model.Point) { c.view.Offset = p }

// Mode returns the pointer state.
func (c *Controller) Mode() Mode { return c.mode }

// Hover returns the current hover target, or nil.
func (c *Controller) Hover() *Hover {
	if c.hover == nil {
		return nil
	}
	h := *c.hover
	return &h
}

// Selection returns a copy of the selection set.
func (c *Controller) Selection() []model.SelectionEntry { return c.selection.Entries() }

// SelectedIDs returns the selected identifiers as a set.
func (c *Controller) SelectedIDs() map[string]bool { return c.selection.IDs() }

// PointerDown starts a pan (shift or middle button) or performs a click
// selection (primary button).
func (c *Controller) PointerDown(ev PointerEvent) Outcome {
	p := model.Point{X: ev.X, Y: ev.Y}
	if c.mode == ModePanning {
		return Outcome{}
	}
	if ev.Shift || ev.Button == ButtonMiddle {
		c.mode = ModePanning
		c.last = p
		return Outcome{}
	}
	if ev.Button != ButtonPrimary {
		return Outcome{}
	}

	idx, hit, ok := c.pick(p)
	if !ok {
		return Outcome{Redraw: RedrawNow, SelectionChanged: c.selection.Clear()}
	}
	obj := c.objects[idx]
	switch props := obj.Properties.(type) {
	case model.SeatsProps:
		if hit.Seat == nil {
			return Outcome{}
		}
		return c.toggleSeat(obj, props, *hit.Seat)
	case model.TableProps:
		return c.toggleTable(obj, props)
	}
	// shapes and text are not selectable
	return Outcome{}
}

// PointerMove pans while dragging and otherwise tracks the hover target.
func (c *Controller) PointerMove(ev PointerEvent) Outcome {
	p := model.Point{X: ev.X, Y: ev.Y}
	if c.mode == ModePanning {
		c.view.Offset = c.view.Offset.Add(p.Sub(c.last))
		c.last = p
		return Outcome{Redraw: RedrawNextFrame}
	}

	var next *Hover
	if idx, hit, ok := c.pick(p); ok {
		next = &Hover{ObjectID: c.objects[idx].ID, Seat: hit.Seat}
	}
	if next.equal(c.hover) {
		return Outcome{}
	}
	c.hover = next
	return Outcome{Redraw: RedrawNextFrame}
}

// PointerUp ends a pan.
func (c *Controller) PointerUp(PointerEvent) Outcome {
	c.mode = ModeIdle
	return Outcome{}
}

// PointerLeave clears the hover target and ends any pan.
func (c *Controller) PointerLeave() Outcome {
	c.mode = ModeIdle
	c.hover = nil
	return Outcome{Redraw: RedrawNow}
}

// Wheel zooms one step in or out around the cursor, keeping the world
// point under the cursor fixed.
func (c *Controller) Wheel(ev WheelEvent) Outcome {
	if ev.DeltaY == 0 || math.IsNaN(ev.DeltaY) {
		return Outcome{}
	}
	dir := 1.0
	if ev.DeltaY > 0 {
		dir = -1
	}
	z := model.ClampZoom(c.view.Zoom + dir*model.ZoomStep)
	if z == c.view.Zoom {
		return Outcome{}
	}
	p := model.Point{X: ev.X, Y: ev.Y}
	c.view = model.ViewState{Offset: geometry.ZoomAt(p, c.view, z), Zoom: z}
	return Outcome{Redraw: RedrawNow}
}

// pick hit-tests the scene topmost first, i.e. in reverse draw order.
func (c *Controller) pick(screen model.Point) (int, geometry.Hit, bool) {
	world := geometry.ScreenToWorld(screen, c.view.Offset, c.view.Zoom)
	opts := geometry.HitOptions{CheckSeatGranularity: true}
	for i := len(c.objects) - 1; i >= 0; i-- {
		if hit := geometry.HitTest(world, c.objects[i], opts); hit.InObject {
			return i, hit, true
		}
	}
	return -1, geometry.Hit{}, false
}

// toggleSeat re-reads occupancy at click time; a reservation pushed
// before the click is honored, one still in flight is settled at checkout.
func (c *Controller) toggleSeat(obj model.SceneObject, props model.SeatsProps, seat geometry.SeatRef) Outcome {
	if c.occ.Status(seat.SeatID).Taken() {
		return Outcome{Redraw: RedrawNow, Denied: &Denial{Reason: DeniedAlreadyTaken, ID: seat.SeatID}}
	}
	tier, ok := c.tiers.ForSeat(seat.SeatID, obj.ID)
	if !ok {
		return Outcome{Redraw: RedrawNow, Denied: &Denial{Reason: DeniedNotForSale, ID: seat.SeatID}}
	}
	c.selection.Toggle(model.SelectionEntry{
		ID:          seat.SeatID,
		Type:        model.SelectSeat,
		Row:         seat.Row,
		Seat:        seat.Seat,
		Section:     obj.ID,
		SectionName: props.SectionName,
		RowLetter:   geometry.RowLabel(seat.Row),
		TierName:    tier.Name,
		TierID:      tier.ID,
		DBTierID:    tier.DBTierID,
		Color:       tier.Color,
	})
	return Outcome{Redraw: RedrawNow, SelectionChanged: true}
}

func (c *Controller) toggleTable(obj model.SceneObject, props model.TableProps) Outcome {
	if c.occ.Status(obj.ID).Taken() {
		return Outcome{Redraw: RedrawNow, Denied: &Denial{Reason: DeniedAlreadyTaken, ID: obj.ID}}
	}
	tier, ok := c.tiers.Lookup(obj.ID)
	if !ok {
		return Outcome{Redraw: RedrawNow, Denied: &Denial{Reason: DeniedNotForSale, ID: obj.ID}}
	}
	c.selection.Toggle(model.SelectionEntry{
		ID:        obj.ID,
		Type:      model.SelectTable,
		TableName: props.TableName,
		Seats:     props.Seats,
		TierName:  tier.Name,
		TierID:    tier.ID,
		DBTierID:  tier.DBTierID,
		Color:     tier.Color,
	})
	return Outcome{Redraw: RedrawNow, SelectionChanged: true}
}
