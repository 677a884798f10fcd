package interaction

import "github.com/iliyamo/venue-seatmap/internal/geometry"

// Button numbers follow the DOM MouseEvent.button convention.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// PointerEvent is a pointer position in canvas CSS pixels.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Shift  bool    `json:"shift"`
}

// WheelEvent is a wheel notch at a canvas position.  Only the sign of
// DeltaY matters.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

// Mode is the state of the pointer state machine.  Hover tracking runs
// in every mode.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePanning:
		return "dragging-pan"
	}
	return "unknown"
}

// Redraw says how soon the scene must be repainted after an event.
type Redraw int

const (
	RedrawNone Redraw = iota
	// RedrawNow is used for discrete events: click, wheel, leave.
	RedrawNow
	// RedrawNextFrame is used for pointer-move; callers coalesce these
	// to at most one repaint per frame.
	RedrawNextFrame
)

// DenialReason explains a refused selection.
type DenialReason string

const (
	DeniedAlreadyTaken DenialReason = "already-taken"
	DeniedNotForSale   DenialReason = "not-for-sale"
)

// Denial is the "selection denied" signal.  It is reported to the user as
// a notice and never changes the selection.
type Denial struct {
	Reason DenialReason `json:"reason"`
	ID     string       `json:"id"`
}

// Message is the user-facing text of the notice.
func (d Denial) Message() string {
	switch d.Reason {
	case DeniedAlreadyTaken:
		return "This seat is already taken."
	case DeniedNotForSale:
		return "This seat is not for sale."
	}
	return "This seat cannot be selected."
}

// Outcome is what one input event did.
type Outcome struct {
	Redraw           Redraw
	Denied           *Denial
	SelectionChanged bool
}

// Hover is the object, and optionally the seat cell, under the pointer.
type Hover struct {
	ObjectID string            `json:"objectId"`
	Seat     *geometry.SeatRef `json:"seat,omitempty"`
}

func (h *Hover) equal(o *Hover) bool {
	if h == nil || o == nil {
		return h == o
	}
	if h.ObjectID != o.ObjectID {
		return false
	}
	if h.Seat == nil || o.Seat == nil {
		return h.Seat == o.Seat
	}
	return h.Seat.SeatID == o.Seat.SeatID
}
