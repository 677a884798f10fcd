// Package geometry computes bounding boxes, hit tests and the world,
// local and screen coordinate transforms for seat-map objects.  Every
// function is pure; nothing here knows about rendering or input.
package geometry

import (
	"math"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// Seat grid metrics, in world units.
const (
	SeatSize      = 20.0
	SeatGap       = 5.0
	RowLabelWidth = 25.0

	// the section header label sits above row 0
	sectionHeaderOffset = -35.0
	sectionExtraHeight  = 40.0
	sectionHitPadding   = 2.0
)

// Table metrics, in world units.
const (
	TableSeatRadius    = 10.0
	TableSeatMargin    = 5.0
	TableOuterMargin   = 16.0
	TableSeatSpacing   = 4.0
	SquareTableBase    = 80.0
	CircleTableRadius  = 40.0
	circleSeatDistance = 5.0
)

// Rect is an axis-aligned box with its top-left corner at X,Y.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies in r grown by pad on every side.
func (r Rect) Contains(p model.Point, pad float64) bool {
	return p.X >= r.X-pad && p.X <= r.X+r.Width+pad &&
		p.Y >= r.Y-pad && p.Y <= r.Y+r.Height+pad
}

// Center returns the middle of r.
func (r Rect) Center() model.Point {
	return model.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Inset shrinks r by d on every side; a negative d grows it.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, Width: r.Width - 2*d, Height: r.Height - 2*d}
}

// ShapeSize returns the fixed box of a custom object shape.
func ShapeSize(kind model.ShapeKind) (w, h float64) {
	switch kind {
	case model.ShapeLine:
		return 100, 10
	case model.ShapeCircle:
		return 80, 80
	default:
		return 120, 80
	}
}

// TextFontSize converts a text object's size factor to a font size.
func TextFontSize(size float64) float64 { return size * 4 }

// BoundingBox returns obj's box in its local frame (before rotation and
// translation).
func BoundingBox(obj model.SceneObject) Rect {
	switch p := obj.Properties.(type) {
	case model.SeatsProps:
		pitch := SeatSize + SeatGap
		return Rect{
			X:      0,
			Y:      sectionHeaderOffset,
			Width:  float64(p.Seats)*pitch - SeatGap + 2*RowLabelWidth,
			Height: float64(p.Rows)*pitch + sectionExtraHeight,
		}
	case model.TableProps:
		return TableLayoutFor(p).Bounds
	case model.ShapeProps:
		w, h := ShapeSize(p.Shape)
		return Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h}
	case model.TextProps:
		fs := TextFontSize(p.Size)
		w := float64(len([]rune(p.Text))) * fs / 2
		return Rect{X: -w / 2, Y: -fs / 2, Width: w, Height: fs}
	}
	return Rect{}
}

// WorldToLocal maps a world point into obj's local frame: translate by
// -Position, then rotate by -Rotation.
func WorldToLocal(p model.Point, obj model.SceneObject) model.Point {
	return rotate(p.Sub(obj.Position), -obj.Rotation)
}

// LocalToWorld is the inverse of WorldToLocal.
func LocalToWorld(p model.Point, obj model.SceneObject) model.Point {
	return rotate(p, obj.Rotation).Add(obj.Position)
}

func rotate(p model.Point, deg float64) model.Point {
	if deg == 0 {
		return p
	}
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return model.Point{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}

// ScreenToWorld undoes the view transform: (p - offset) / zoom.
func ScreenToWorld(p, offset model.Point, zoom float64) model.Point {
	return p.Sub(offset).Scale(1 / zoom)
}

// WorldToScreen applies the view transform: p*zoom + offset.
func WorldToScreen(p, offset model.Point, zoom float64) model.Point {
	return p.Scale(zoom).Add(offset)
}

// ZoomAt returns the offset that keeps the world point under screen point
// p fixed when the zoom changes from the view's zoom to newZoom.
func ZoomAt(p model.Point, view model.ViewState, newZoom float64) model.Point {
	world := ScreenToWorld(p, view.Offset, view.Zoom)
	return p.Sub(world.Scale(newZoom))
}
