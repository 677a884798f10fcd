package model

import "strings"

// Status is the sale state of a seat or table.  Identifiers missing
// from an occupancy map are StatusAvailable.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

// ParseStatus normalizes a status string from the ticketing backend.
// Unknown values are kept verbatim (lower-cased) and are not taken.
func ParseStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusAvailable
	}
	return Status(s)
}

// Taken reports whether the seat can no longer be selected.
func (s Status) Taken() bool {
	switch s {
	case StatusPending, StatusReserved, StatusSold:
		return true
	}
	return false
}

// OccupancyEntry is one row of an occupancy snapshot.
type OccupancyEntry struct {
	SeatIdentifier string `json:"seat_identifier"`
	Status         Status `json:"status"`
}
