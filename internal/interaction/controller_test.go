package interaction

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-seatmap/internal/geometry"
	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/occupancy"
)

func sectionA() model.SceneObject {
	return model.SceneObject{
		ID:         "sec-a",
		Type:       model.TypeSeats,
		Properties: model.SeatsProps{SectionName: "A", Rows: 2, Seats: 3},
	}
}

func goldTier(ids ...string) model.Tier {
	return model.Tier{ID: "gold", DBTierID: "77", Name: "Gold", Color: "#f59e0b", AssignedSeats: ids}
}

func newController(objects []model.SceneObject, tiers []model.Tier) (*Controller, *occupancy.Store) {
	store := occupancy.NewStore()
	c := NewController(store)
	c.SetScene(objects, tiers)
	return c, store
}

// click at the screen point showing the given local point of obj
func clickAt(c *Controller, obj model.SceneObject, local model.Point) Outcome {
	world := geometry.LocalToWorld(local, obj)
	screen := geometry.WorldToScreen(world, c.View().Offset, c.View().Zoom)
	return c.PointerDown(PointerEvent{X: screen.X, Y: screen.Y, Button: ButtonPrimary})
}

func TestClickSeatTogglesSelection(t *testing.T) {
	sec := sectionA()
	c, _ := newController([]model.SceneObject{sec}, []model.Tier{goldTier("sec-a")})

	out := clickAt(c, sec, geometry.SeatCenter(0, 1))
	assert.True(t, out.SelectionChanged)
	assert.Nil(t, out.Denied)
	assert.Equal(t, RedrawNow, out.Redraw)

	sel := c.Selection()
	require.Len(t, sel, 1)
	assert.Equal(t, model.SelectionEntry{
		ID:          "A_0_1",
		Type:        model.SelectSeat,
		Row:         0,
		Seat:        1,
		Section:     "sec-a",
		SectionName: "A",
		RowLetter:   "A",
		TierName:    "Gold",
		TierID:      "gold",
		DBTierID:    "77",
		Color:       "#f59e0b",
	}, sel[0])

	out = clickAt(c, sec, geometry.SeatCenter(0, 1))
	assert.True(t, out.SelectionChanged)
	assert.Empty(t, c.Selection())
}

func TestToggleTwiceRestoresSelection(t *testing.T) {
	sec := sectionA()
	c, _ := newController([]model.SceneObject{sec}, []model.Tier{goldTier("sec-a")})
	clickAt(c, sec, geometry.SeatCenter(1, 2))
	before := c.Selection()

	for row := 0; row < 2; row++ {
		for seat := 0; seat < 3; seat++ {
			clickAt(c, sec, geometry.SeatCenter(row, seat))
			clickAt(c, sec, geometry.SeatCenter(row, seat))
			assert.Equal(t, before, c.Selection())
		}
	}
}

func TestClickTakenSeatIsDenied(t *testing.T) {
	for _, status := range []string{"sold", "reserved", "pending"} {
		t.Run(status, func(t *testing.T) {
			sec := sectionA()
			c, store := newController([]model.SceneObject{sec}, []model.Tier{goldTier("sec-a")})
			store.Seed([]model.OccupancyEntry{{SeatIdentifier: "A_1_0", Status: model.Status(status)}})

			out := clickAt(c, sec, geometry.SeatCenter(1, 0))
			require.NotNil(t, out.Denied)
			assert.Equal(t, Denial{Reason: DeniedAlreadyTaken, ID: "A_1_0"}, *out.Denied)
			assert.False(t, out.SelectionChanged)
			assert.Empty(t, c.Selection())
		})
	}
}

func TestClickUntieredSeatIsDenied(t *testing.T) {
	sec := sectionA()
	c, _ := newController([]model.SceneObject{sec}, []model.Tier{goldTier("A_0_0")})

	out := clickAt(c, sec, geometry.SeatCenter(0, 2))
	require.NotNil(t, out.Denied)
	assert.Equal(t, DeniedNotForSale, out.Denied.Reason)
	assert.Empty(t, c.Selection())

	out = clickAt(c, sec, geometry.SeatCenter(0, 0))
	assert.Nil(t, out.Denied)
	assert.Len(t, c.Selection(), 1)
}

func TestPushedReservationIsHonoredAtClickTime(t *testing.T) {
	sec := sectionA()
	c, store := newController([]model.SceneObject{sec}, []model.Tier{goldTier("sec-a")})
	store.MarkReserved("A_0_0")

	out := clickAt(c, sec, geometry.SeatCenter(0, 0))
	require.NotNil(t, out.Denied)
	assert.Equal(t, DeniedAlreadyTaken, out.Denied.Reason)
}

func TestClickTable(t *testing.T) {
	table := model.SceneObject{
		ID:         "t1",
		Type:       model.TypeTable,
		Position:   model.Point{X: 400, Y: 300},
		Properties: model.TableProps{TableName: "VIP", Style: model.TableCircle, Seats: 8},
	}
	c, store := newController([]model.SceneObject{table}, []model.Tier{goldTier("t1")})

	out := clickAt(c, table, model.Point{})
	assert.True(t, out.SelectionChanged)
	sel := c.Selection()
	require.Len(t, sel, 1)
	assert.Equal(t, model.SelectTable, sel[0].Type)
	assert.Equal(t, "VIP", sel[0].TableName)
	assert.Equal(t, 8, sel[0].Seats)

	clickAt(c, table, model.Point{})
	store.MarkReserved("t1")
	out = clickAt(c, table, model.Point{})
	require.NotNil(t, out.Denied)
	assert.Equal(t, DeniedAlreadyTaken, out.Denied.Reason)
}

func TestClickEmptySpaceClearsSelection(t *testing.T) {
	sec := sectionA()
	c, _ := newController([]model.SceneObject{sec}, []model.Tier{goldTier("sec-a")})
	clickAt(c, sec, geometry.SeatCenter(0, 0))
	clickAt(c, sec, geometry.SeatCenter(1, 1))
	require.Len(t, c.Selection(), 2)

	out := c.PointerDown(PointerEvent{X: 5000, Y: 5000})
	assert.True(t, out.SelectionChanged)
	assert.Equal(t, RedrawNow, out.Redraw)
	assert.Empty(t, c.Selection())
}

func TestTopmostObjectWins(t *testing.T) {
	under := sectionA()
	over := model.SceneObject{
		ID:         "stage",
		Type:       model.TypeObject,
		Position:   geometry.SeatCenter(0, 1),
		Properties: model.ShapeProps{Shape: model.ShapeCircle},
	}
	c, _ := newController([]model.SceneObject{under, over}, []model.Tier{goldTier("sec-a")})

	out := clickAt(c, under, geometry.SeatCenter(0, 1))
	assert.False(t, out.SelectionChanged, "the shape painted on top swallows the click")
	assert.Empty(t, c.Selection())
}

func TestShiftDragPans(t *testing.T) {
	c, _ := newController([]model.SceneObject{sectionA()}, nil)

	assert.Equal(t, Outcome{}, c.PointerDown(PointerEvent{X: 10, Y: 10, Shift: true}))
	assert.Equal(t, ModePanning, c.Mode())

	out := c.PointerMove(PointerEvent{X: 25, Y: 4})
	assert.Equal(t, RedrawNextFrame, out.Redraw)
	c.PointerMove(PointerEvent{X: 30, Y: 0})
	assert.Equal(t, model.Point{X: 20, Y: -10}, c.View().Offset)

	// clicks are ignored mid-drag
	assert.Equal(t, Outcome{}, c.PointerDown(PointerEvent{X: 30, Y: 0}))

	c.PointerUp(PointerEvent{})
	assert.Equal(t, ModeIdle, c.Mode())
	c.PointerMove(PointerEvent{X: 100, Y: 100})
	assert.Equal(t, model.Point{X: 20, Y: -10}, c.View().Offset)
}

func TestMiddleButtonPans(t *testing.T) {
	c, _ := newController(nil, nil)
	c.PointerDown(PointerEvent{X: 0, Y: 0, Button: ButtonMiddle})
	c.PointerMove(PointerEvent{X: -7, Y: 3})
	assert.Equal(t, model.Point{X: -7, Y: 3}, c.View().Offset)
}

func TestHoverTracking(t *testing.T) {
	sec := sectionA()
	c, _ := newController([]model.SceneObject{sec}, nil)

	p := geometry.SeatCenter(1, 2)
	out := c.PointerMove(PointerEvent{X: p.X, Y: p.Y})
	assert.Equal(t, RedrawNextFrame, out.Redraw)
	h := c.Hover()
	require.NotNil(t, h)
	assert.Equal(t, "sec-a", h.ObjectID)
	require.NotNil(t, h.Seat)
	assert.Equal(t, "A_1_2", h.Seat.SeatID)

	out = c.PointerMove(PointerEvent{X: p.X + 1, Y: p.Y})
	assert.Equal(t, RedrawNone, out.Redraw, "same seat, nothing to repaint")

	out = c.PointerLeave()
	assert.Equal(t, RedrawNow, out.Redraw)
	assert.Nil(t, c.Hover())
}

func TestWheelZoomAtCursor(t *testing.T) {
	c, _ := newController(nil, nil)
	cursor := model.Point{X: 100, Y: 100}
	before := geometry.ScreenToWorld(cursor, c.View().Offset, c.View().Zoom)

	out := c.Wheel(WheelEvent{X: 100, Y: 100, DeltaY: -120})
	assert.Equal(t, RedrawNow, out.Redraw)
	assert.InDelta(t, 1.15, c.View().Zoom, 1e-12)

	after := geometry.WorldToScreen(before, c.View().Offset, c.View().Zoom)
	assert.InDelta(t, 100, after.X, 1e-9)
	assert.InDelta(t, 100, after.Y, 1e-9)
	assert.InDelta(t, -15, c.View().Offset.X, 1e-9)
	assert.InDelta(t, -15, c.View().Offset.Y, 1e-9)
}

func TestWheelZoomIsClamped(t *testing.T) {
	c, _ := newController(nil, nil)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		dy := float64(rng.Intn(401) - 200)
		c.Wheel(WheelEvent{X: rng.Float64() * 800, Y: rng.Float64() * 600, DeltaY: dy})
		z := c.View().Zoom
		require.GreaterOrEqual(t, z, model.MinZoom)
		require.LessOrEqual(t, z, model.MaxZoom)
	}

	for i := 0; i < 100; i++ {
		c.Wheel(WheelEvent{DeltaY: -1})
	}
	assert.Equal(t, model.MaxZoom, c.View().Zoom)
	assert.Equal(t, Outcome{}, c.Wheel(WheelEvent{DeltaY: -1}), "already at the limit")
}

func TestSetSceneDropsSelection(t *testing.T) {
	sec := sectionA()
	c, _ := newController([]model.SceneObject{sec}, []model.Tier{goldTier("sec-a")})
	clickAt(c, sec, geometry.SeatCenter(0, 0))
	require.Len(t, c.Selection(), 1)

	c.SetScene(nil, nil)
	assert.Empty(t, c.Selection())
	assert.Nil(t, c.Hover())
}
