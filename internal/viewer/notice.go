package viewer

import (
	"sync"

	"github.com/iliyamo/venue-seatmap/internal/interaction"
	"github.com/iliyamo/venue-seatmap/internal/model"
)

// NoticeType names what a Notice reports.
type NoticeType string

const (
	NoticeSelection  NoticeType = "selection"
	NoticeDenied     NoticeType = "denied"
	NoticeConnection NoticeType = "connection"
	NoticeFrame      NoticeType = "frame"
	NoticeLoaded     NoticeType = "loaded"
)

// Notice is one message of a session's notice stream.  Data is one of
// SelectionData, DeniedData, ConnectionData, FrameData or LoadedData.
type Notice struct {
	Type NoticeType `json:"type"`
	Data any        `json:"data"`
}

type SelectionData struct {
	Selection []model.SelectionEntry `json:"selection"`
}

type DeniedData struct {
	Reason  interaction.DenialReason `json:"reason"`
	ID      string                   `json:"id"`
	Message string                   `json:"message"`
}

type ConnectionData struct {
	State string `json:"state"`
}

type FrameData struct {
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type LoadedData struct {
	MapID   string `json:"mapId"`
	Objects int    `json:"objects"`
	Tiers   int    `json:"tiers"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

const subscriberBuffer = 32

// broadcaster fans notices out to subscribers.  A subscriber that falls
// behind loses notices rather than stalling the session.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Notice]struct{}
	closed bool
}

func (b *broadcaster) subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	if b.subs == nil {
		b.subs = make(map[chan Notice]struct{})
	}
	b.subs[ch] = struct{}{}
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
}

func (b *broadcaster) publish(n Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
