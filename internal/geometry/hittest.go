package geometry

import "github.com/iliyamo/venue-seatmap/internal/model"

// HitOptions tunes HitTest.
type HitOptions struct {
	// CheckSeatGranularity resolves which seat cell of a seats object
	// is under the point.
	CheckSeatGranularity bool
}

// Hit is the result of testing one world point against one object.
type Hit struct {
	InObject bool
	Seat     *SeatRef
}

// HitTest tests world point p against obj.  Rotation is handled by
// counter-rotating p into the object's local frame.
//
// With seat granularity a seats object reports the first seat circle
// (row-major) containing p; InObject still reflects the padded section
// box so that the header and aisles count as part of the section.
func HitTest(p model.Point, obj model.SceneObject, opts HitOptions) Hit {
	local := WorldToLocal(p, obj)
	box := BoundingBox(obj)

	seats, isSeats := obj.Properties.(model.SeatsProps)
	if !isSeats {
		return Hit{InObject: box.Contains(local, 0)}
	}

	hit := Hit{InObject: box.Contains(local, sectionHitPadding)}
	if !opts.CheckSeatGranularity || !hit.InObject {
		return hit
	}
	if ref, ok := seatAt(local, obj.SectionID(), seats); ok {
		hit.Seat = &ref
	}
	return hit
}

func seatAt(local model.Point, sectionID string, p model.SeatsProps) (SeatRef, bool) {
	const r2 = (SeatSize / 2) * (SeatSize / 2)
	for row := 0; row < p.Rows; row++ {
		for s := 0; s < p.Seats; s++ {
			c := SeatCenter(row, s)
			dx, dy := local.X-c.X, local.Y-c.Y
			if dx*dx+dy*dy <= r2 {
				return SeatRef{Row: row, Seat: s, SectionID: sectionID, SeatID: SeatID(sectionID, row, s)}, true
			}
		}
	}
	return SeatRef{}, false
}
