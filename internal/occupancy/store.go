// Package occupancy keeps the sale status of every seat and table of the
// event being viewed.
//
// The store has exactly two writers: Seed, called with a full snapshot
// once per event context, and MarkReserved, called for every pushed
// reservation.  MarkReserved never removes or downgrades an entry; only
// a fresh snapshot can make a seat available again.
package occupancy

import (
	"sync"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// Reader is the read side used by the renderer and the interaction
// controller.
type Reader interface {
	Status(id string) model.Status
}

// Store maps seat/table identifiers to their status.
type Store struct {
	mu      sync.RWMutex
	status  map[string]model.Status
	version uint64
}

// NewStore returns an empty store where everything is available.
func NewStore() *Store {
	return &Store{status: make(map[string]model.Status)}
}

// Seed replaces the whole map with a snapshot.  Entries reported as
// available are not stored since absence already means available.
func (s *Store) Seed(entries []model.OccupancyEntry) {
	m := make(map[string]model.Status, len(entries))
	for _, e := range entries {
		if e.SeatIdentifier == "" {
			continue
		}
		st := model.ParseStatus(string(e.Status))
		if st == model.StatusAvailable {
			continue
		}
		m[e.SeatIdentifier] = st
	}
	s.mu.Lock()
	s.status = m
	s.version++
	s.mu.Unlock()
}

// MarkReserved sets every id to reserved and returns how many entries
// actually changed.  Re-marking a reserved seat is a no-op.
func (s *Store) MarkReserved(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, id := range ids {
		if id == "" || s.status[id] == model.StatusReserved {
			continue
		}
		s.status[id] = model.StatusReserved
		changed++
	}
	if changed > 0 {
		s.version++
	}
	return changed
}

// Status returns the status of id; unknown ids are available.
func (s *Store) Status(id string) model.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.status[id]; ok {
		return st
	}
	return model.StatusAvailable
}

// IsTaken reports whether id is pending, reserved or sold.
func (s *Store) IsTaken(id string) bool { return s.Status(id).Taken() }

// Len returns the number of non-available entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.status)
}

// Version increases on every change.  A viewer compares it with the
// version of its last frame to skip redundant redraws.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
