package geometry

import (
	"math"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// TableLayout is the resolved geometry of a table: the table body, where
// each seat circle goes and the overall bounding box.
type TableLayout struct {
	Style  model.TableStyle
	Width  float64 // square tables
	Height float64 // square tables
	Radius float64 // circle tables
	Seats  []model.Point
	Bounds Rect
}

// EffectiveEndSeats caps the seats at each short end of a square table
// to half the seat count.
func EffectiveEndSeats(endSeats, seatCount int) int {
	return max(0, min(endSeats, seatCount/2))
}

// TableLayoutFor computes the layout of a table.
func TableLayoutFor(p model.TableProps) TableLayout {
	if p.Style == model.TableCircle {
		return circleLayout(p)
	}
	return squareLayout(p)
}

func squareLayout(p model.TableProps) TableLayout {
	end := EffectiveEndSeats(p.EndSeats, p.Seats)
	side := p.Seats - 2*end
	left := (side + 1) / 2
	right := side / 2

	pitch := 2*TableSeatRadius + TableSeatSpacing
	w := p.Width
	if w <= 0 {
		w = SquareTableBase
	}
	h := p.Height
	if h <= 0 {
		h = SquareTableBase
	}
	w = math.Max(w, float64(end)*pitch)
	h = math.Max(h, float64(max(left, right))*pitch)

	out := TableLayout{Style: model.TableSquare, Width: w, Height: h}
	push := TableSeatRadius + TableSeatMargin
	for i := 0; i < end; i++ {
		x := -w/2 + w*(float64(i)+0.5)/float64(end)
		out.Seats = append(out.Seats, model.Point{X: x, Y: -h/2 - push})
	}
	for i := 0; i < end; i++ {
		x := -w/2 + w*(float64(i)+0.5)/float64(end)
		out.Seats = append(out.Seats, model.Point{X: x, Y: h/2 + push})
	}
	for i := 0; i < left; i++ {
		y := -h/2 + h*(float64(i)+0.5)/float64(left)
		out.Seats = append(out.Seats, model.Point{X: -w/2 - push, Y: y})
	}
	for i := 0; i < right; i++ {
		y := -h/2 + h*(float64(i)+0.5)/float64(right)
		out.Seats = append(out.Seats, model.Point{X: w/2 + push, Y: y})
	}

	bounds := Rect{X: -w / 2, Y: -h / 2, Width: w, Height: h}
	for _, s := range out.Seats {
		bounds = bounds.union(Rect{
			X: s.X - TableSeatRadius, Y: s.Y - TableSeatRadius,
			Width: 2 * TableSeatRadius, Height: 2 * TableSeatRadius,
		})
	}
	out.Bounds = bounds.Inset(-TableOuterMargin)
	return out
}

func circleLayout(p model.TableProps) TableLayout {
	r := p.Radius
	if r <= 0 {
		r = CircleTableRadius
	}
	out := TableLayout{Style: model.TableCircle, Radius: r}
	d := r + TableSeatRadius + circleSeatDistance
	for i := 0; i < p.Seats; i++ {
		a := 2*math.Pi*float64(i)/float64(p.Seats) - math.Pi/2
		out.Seats = append(out.Seats, model.Point{X: d * math.Cos(a), Y: d * math.Sin(a)})
	}
	half := r + TableOuterMargin + TableSeatRadius
	out.Bounds = Rect{X: -half, Y: -half, Width: 2 * half, Height: 2 * half}
	return out
}
