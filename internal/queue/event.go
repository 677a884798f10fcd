// Package queue defines message payloads exchanged over the message broker
// and the AMQP side of the live update channel.
package queue

import (
	"time"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// SelectionChangedEvent is published whenever a viewer's selection set
// changes.  It carries the full set so consumers (cart, checkout) never
// need to replay earlier events.
type SelectionChangedEvent struct {
	SessionID string                 `json:"session_id"`
	MapID     string                 `json:"map_id"`
	EventID   string                 `json:"event_id,omitempty"`
	Selection []model.SelectionEntry `json:"selection"`
	ChangedAt string                 `json:"changed_at"`
}

// NewSelectionChangedEvent stamps the event with the current UTC time.
func NewSelectionChangedEvent(sessionID, mapID, eventID string, sel []model.SelectionEntry) SelectionChangedEvent {
	if sel == nil {
		sel = []model.SelectionEntry{}
	}
	return SelectionChangedEvent{
		SessionID: sessionID,
		MapID:     mapID,
		EventID:   eventID,
		Selection: sel,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
