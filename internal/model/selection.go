package model

// SelectionKind tells seat selections and table selections apart.
type SelectionKind string

const (
	SelectSeat  SelectionKind = "seat"
	SelectTable SelectionKind = "table"
)

// SelectionEntry is one element of the selection set handed to the
// checkout flow.  Seat-only fields are empty for tables and vice versa.
type SelectionEntry struct {
	ID   string        `json:"id"`
	Type SelectionKind `json:"type"`

	// seat selection
	Row         int    `json:"row"`
	Seat        int    `json:"seat"`
	Section     string `json:"section,omitempty"`
	SectionName string `json:"sectionName,omitempty"`
	RowLetter   string `json:"rowLetter,omitempty"`

	// table selection
	TableName string `json:"tableName,omitempty"`
	Seats     int    `json:"seats,omitempty"`

	TierName string `json:"tierName"`
	TierID   string `json:"tierId"`
	DBTierID string `json:"dbTierId"`
	Color    string `json:"color"`
}

// Selection is an ordered set of entries keyed by ID.
type Selection struct {
	entries []SelectionEntry
}

// Toggle adds e when no entry with the same ID exists and removes that
// entry otherwise.  It reports whether e is selected afterwards.
func (s *Selection) Toggle(e SelectionEntry) bool {
	for i, cur := range s.entries {
		if cur.ID == e.ID {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return false
		}
	}
	s.entries = append(s.entries, e)
	return true
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	for _, cur := range s.entries {
		if cur.ID == id {
			return true
		}
	}
	return false
}

// Clear empties the set and reports whether anything was removed.
func (s *Selection) Clear() bool {
	n := len(s.entries)
	s.entries = nil
	return n > 0
}

// Len returns the number of selected entries.
func (s *Selection) Len() int { return len(s.entries) }

// Entries returns a copy of the selection in insertion order.
func (s *Selection) Entries() []SelectionEntry {
	out := make([]SelectionEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns the selected identifiers as a set.
func (s *Selection) IDs() map[string]bool {
	ids := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		ids[e.ID] = true
	}
	return ids
}
