package geometry

import (
	"strconv"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// SeatRef identifies one cell of a seat section.
type SeatRef struct {
	Row       int    `json:"row"`
	Seat      int    `json:"seat"`
	SectionID string `json:"sectionId"`
	SeatID    string `json:"seatId"`
}

// SeatID derives the identifier of a seat cell from its position in the
// section.  The identifier is structural: reordering or resizing a
// section changes which physical seat an identifier refers to.
func SeatID(sectionID string, row, seat int) string {
	return sectionID + "_" + strconv.Itoa(row) + "_" + strconv.Itoa(seat)
}

// SeatIDs lists every seat identifier of a seats object in row-major
// order.  Other object types have none.
func SeatIDs(obj model.SceneObject) []string {
	p, ok := obj.Properties.(model.SeatsProps)
	if !ok {
		return nil
	}
	section := obj.SectionID()
	ids := make([]string, 0, p.Rows*p.Seats)
	for r := 0; r < p.Rows; r++ {
		for s := 0; s < p.Seats; s++ {
			ids = append(ids, SeatID(section, r, s))
		}
	}
	return ids
}

// SeatCenter is the local position of a seat circle's center.
func SeatCenter(row, seat int) model.Point {
	pitch := SeatSize + SeatGap
	return model.Point{
		X: RowLabelWidth + float64(seat)*pitch + SeatSize/2,
		Y: float64(row)*pitch + SeatSize/2,
	}
}

// RowLabel turns a zero-based row index into A, B, ... Z, AA, AB, ...
func RowLabel(row int) string {
	if row < 0 {
		return ""
	}
	var buf []byte
	for n := row + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}
	return string(buf)
}
