package model

import "encoding/json"

// Tier is a pricing/category bucket.  AssignedSeats holds scene object
// ids (whole sections or tables) and derived seat ids.
type Tier struct {
	ID            string
	DBTierID      string // identifier of the tier in the ticketing backend
	Name          string
	Color         string
	AssignedSeats []string
}

type rawTier struct {
	ID            FlexString   `json:"id"`
	DBTierID      FlexString   `json:"dbTierId"`
	Name          string       `json:"name"`
	Color         string       `json:"color"`
	AssignedSeats []FlexString `json:"assignedSeats"`
}

// UnmarshalJSON accepts ids given either as strings or numbers.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var raw rawTier
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	seats := make([]string, 0, len(raw.AssignedSeats))
	for _, s := range raw.AssignedSeats {
		if s != "" {
			seats = append(seats, string(s))
		}
	}
	*t = Tier{
		ID:            string(raw.ID),
		DBTierID:      string(raw.DBTierID),
		Name:          raw.Name,
		Color:         raw.Color,
		AssignedSeats: seats,
	}
	return nil
}

// TierIndex answers "which tier owns this identifier".  An identifier is
// expected in at most one tier; when the document breaks that, the first
// tier in document order wins.
type TierIndex struct {
	tiers []Tier
	owner map[string]int
}

// NewTierIndex builds the reverse lookup for tiers.
func NewTierIndex(tiers []Tier) TierIndex {
	idx := TierIndex{tiers: tiers, owner: make(map[string]int)}
	for i, t := range tiers {
		for _, id := range t.AssignedSeats {
			if _, taken := idx.owner[id]; !taken {
				idx.owner[id] = i
			}
		}
	}
	return idx
}

// Lookup returns the tier that lists id directly.
func (x TierIndex) Lookup(id string) (Tier, bool) {
	i, ok := x.owner[id]
	if !ok {
		return Tier{}, false
	}
	return x.tiers[i], true
}

// ForSeat resolves the tier of a derived seat id.  A seat listed on its
// own wins over an assignment of its whole section.
func (x TierIndex) ForSeat(seatID, sectionObjectID string) (Tier, bool) {
	if t, ok := x.Lookup(seatID); ok {
		return t, true
	}
	return x.Lookup(sectionObjectID)
}

// Tiers returns the indexed tiers in document order.
func (x TierIndex) Tiers() []Tier { return x.tiers }
