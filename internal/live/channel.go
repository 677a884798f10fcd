// Package live keeps a seat map's occupancy current by subscribing to
// the push topic of the map and reporting every reservation it carries.
//
// A Channel owns one subscription at a time.  When the transport drops,
// the channel reports StateError, waits a fixed delay and subscribes
// again; occupancy already applied is kept.  Stop is synchronous: once it
// returns, no further callbacks are made.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultReconnectDelay is used when Options.ReconnectDelay is zero.
const DefaultReconnectDelay = 5 * time.Second

// ErrStopped is returned by Start on a channel that was stopped.
var ErrStopped = errors.New("live: channel stopped")

// Transport opens subscriptions to push topics.
type Transport interface {
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription yields raw message bodies until it fails or is closed.
type Subscription interface {
	// Next blocks until a message arrives, the subscription fails or ctx
	// is done.
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Topic is the push destination of a seat map.
func Topic(mapID string) string { return "/seat-map/" + mapID }

// Options configures a Channel.  Callbacks run on the channel's goroutine
// and receive a context that is cancelled by Stop, so a callback blocked
// on a busy consumer can give up.
type Options struct {
	ReconnectDelay time.Duration
	OnReserved     func(ctx context.Context, ids []string)
	OnState        func(State)
}

// Channel is the live update subscription of one map.
type Channel struct {
	mapID     string
	transport Transport
	opts      Options

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewChannel returns an idle channel for mapID.
func NewChannel(mapID string, t Transport, opts Options) *Channel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	return &Channel{mapID: mapID, transport: t, opts: opts}
}

// MapID returns the map the channel follows.
func (c *Channel) MapID() string { return c.mapID }

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins subscribing in the background.  Calling Start on a running
// channel is a no-op.
func (c *Channel) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}
	if c.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
	return nil
}

// Stop cancels the subscription and waits for the connection to be
// released.  The channel cannot be restarted.
func (c *Channel) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	already := c.stopped
	c.stopped = true
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if !already {
		c.setState(StateDisconnected)
	}
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

func (c *Channel) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	topic := Topic(c.mapID)
	for {
		c.setState(StateConnecting)
		sub, err := c.transport.Subscribe(ctx, topic)
		if err == nil {
			c.setState(StateConnected)
			err = c.consume(ctx, sub)
			_ = sub.Close()
		}
		if ctx.Err() != nil {
			return
		}
		log.Printf("live: %s: %v; reconnecting in %s", topic, err, c.opts.ReconnectDelay)
		c.setState(StateError)

		t := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (c *Channel) consume(ctx context.Context, sub Subscription) error {
	for {
		body, err := sub.Next(ctx)
		if err != nil {
			return fmt.Errorf("subscription: %w", err)
		}
		ids, err := DecodeReserved(body)
		if err != nil {
			log.Printf("live: %s: dropping message: %v", c.mapID, err)
			continue
		}
		if len(ids) > 0 && c.opts.OnReserved != nil {
			c.opts.OnReserved(ctx, ids)
		}
	}
}

// DecodeReserved parses a push payload: a JSON array of seat or table
// identifiers that just became reserved.  Empty identifiers are dropped.
func DecodeReserved(body []byte) ([]string, error) {
	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode reserved ids: %w", err)
	}
	ids := raw[:0]
	for _, id := range raw {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
