package render

import (
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

const (
	colorBackground   = "#ffffff"
	colorUntiered     = "#d1d5db"
	colorTaken        = "#6b7280"
	colorTierFallback = "#3b82f6"
	colorStroke       = "#00000040"
	colorSelected     = "#000000"
	colorShadow       = "#0000002e"
	colorHoverTaken   = "#dc2626"
	colorHoverNone    = "#9ca3af"
	colorSectionFill  = "#f9fafb"
	colorSectionLine  = "#e5e7eb"
	colorShapeFill    = "#e5e7eb"
	colorShapeLine    = "#9ca3af"
	colorLabel        = "#111827"
	colorMuted        = "#6b7280"
	colorGlyph        = "#ffffff"

	selectedLineWidth = 2.5
)

// seatState is the resolved look of one seat or table.
type seatState int

const (
	stateAvailable seatState = iota
	stateTaken
	stateUntiered
)

// resolve applies the color precedence: no tier, then taken, then the
// tier color.
func resolve(tier model.Tier, hasTier bool, status model.Status) (seatState, string) {
	switch {
	case !hasTier:
		return stateUntiered, colorUntiered
	case status.Taken():
		return stateTaken, colorTaken
	}
	return stateAvailable, tierColor(tier.Color)
}

func tierColor(c string) string {
	if validHex(c) {
		return c
	}
	return colorTierFallback
}

// validHex accepts #rgb, #rrggbb and #rrggbbaa, the forms gg understands.
func validHex(c string) bool {
	c = strings.TrimPrefix(c, "#")
	switch len(c) {
	case 3, 6, 8:
	default:
		return false
	}
	for _, r := range c {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

func setHex(dc *gg.Context, c string) { dc.SetHexColor(c) }

// setLineWidth sets a stroke width in local units.  gg strokes in device
// pixels, so the width is scaled by the current transform.
func setLineWidth(dc *gg.Context, w float64) {
	x0, y0 := dc.TransformPoint(0, 0)
	x1, y1 := dc.TransformPoint(1, 0)
	dc.SetLineWidth(w * math.Hypot(x1-x0, y1-y0))
}
