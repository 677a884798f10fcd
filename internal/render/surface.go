package render

import (
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
)

// Limits of a surface.  Larger requests are clamped, and the ratio is
// lowered further when the bitmap would exceed MaxPixels.
const (
	MaxCSSSide = 4096
	MaxDPR     = 4.0
	MaxPixels  = 4096 * 4096
)

// Surface is the drawing target of a viewer: a canvas sized in CSS pixels
// and backed by a bitmap scaled by the device pixel ratio.
type Surface struct {
	cssWidth  int
	cssHeight int
	dpr       float64
	dc        *gg.Context
}

// NewSurface allocates a canvas of the given CSS size.
func NewSurface(cssWidth, cssHeight int, dpr float64) *Surface {
	s := &Surface{}
	s.Resize(cssWidth, cssHeight, dpr)
	return s
}

// Resize matches the backing bitmap to a container of the given CSS size
// and device pixel ratio, clamped to the surface limits.  It reports
// whether the bitmap was reallocated.
func (s *Surface) Resize(cssWidth, cssHeight int, dpr float64) bool {
	cssWidth = min(max(cssWidth, 1), MaxCSSSide)
	cssHeight = min(max(cssHeight, 1), MaxCSSSide)
	if dpr <= 0 || math.IsNaN(dpr) || math.IsInf(dpr, 0) {
		dpr = 1
	}
	dpr = min(dpr, MaxDPR)
	if area := float64(cssWidth) * float64(cssHeight); area*dpr*dpr > MaxPixels {
		dpr = math.Floor(math.Sqrt(MaxPixels/area)*100) / 100
	}
	if s.dc != nil && cssWidth == s.cssWidth && cssHeight == s.cssHeight && dpr == s.dpr {
		return false
	}
	s.cssWidth, s.cssHeight, s.dpr = cssWidth, cssHeight, dpr
	pw := int(math.Ceil(float64(cssWidth) * dpr))
	ph := int(math.Ceil(float64(cssHeight) * dpr))
	s.dc = gg.NewContext(pw, ph)
	return true
}

// CSSSize returns the container size in CSS pixels.
func (s *Surface) CSSSize() (int, int) { return s.cssWidth, s.cssHeight }

// DPR returns the device pixel ratio.
func (s *Surface) DPR() float64 { return s.dpr }

// PixelSize returns the bitmap size.
func (s *Surface) PixelSize() (int, int) { return s.dc.Width(), s.dc.Height() }

// Image exposes the bitmap; it is overwritten by the next Render.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// EncodePNG writes the current bitmap as PNG.
func (s *Surface) EncodePNG(w io.Writer) error { return s.dc.EncodePNG(w) }
