package model

import "math"

// Zoom limits and the step applied per wheel notch.
const (
	MinZoom  = 0.5
	MaxZoom  = 5.0
	ZoomStep = 0.15
)

// ViewState is the pan/zoom of a seat-map view.  Offset is a screen-space
// translation applied before Zoom.
type ViewState struct {
	Offset Point   `json:"offset"`
	Zoom   float64 `json:"zoom"`
}

// DefaultView is the identity transform.
func DefaultView() ViewState { return ViewState{Zoom: 1} }

// ClampZoom limits z to [MinZoom, MaxZoom].  NaN maps to 1.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return 1
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
