// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the viewer.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/venue-seatmap/internal/queue"
)

// SelectionExchange receives selection-changed events, routed by map id.
const SelectionExchange = "seat-map.selection"

// SelectionRoutingKey is the routing key of a map's selection events.
func SelectionRoutingKey(mapID string) string { return "selection." + mapID }

// SelectionPublisher publishes SelectionChangedEvent messages.  The broker
// connection is opened on first use and reopened after a failure.
type SelectionPublisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewSelectionPublisher returns a publisher for the broker at url.  No
// connection is made until the first publish.
func NewSelectionPublisher(url string) *SelectionPublisher {
	return &SelectionPublisher{url: url}
}

func (p *SelectionPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := q.Dial(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Ensure the exchange exists (idempotent). Durable so bindings survive broker restarts.
	if err := ch.ExchangeDeclare(
		SelectionExchange, // name
		"topic",           // kind
		true,              // durable
		false,             // autoDelete
		false,             // internal
		false,             // noWait
		nil,               // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *SelectionPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// PublishSelectionChanged publishes event on the selection exchange.
// Messages are transient: a newer event always supersedes an older one.
func (p *SelectionPublisher) PublishSelectionChanged(ctx context.Context, event q.SelectionChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(ctx)
	if err != nil {
		log.Printf("rabbitmq: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		SelectionExchange,                // exchange
		SelectionRoutingKey(event.MapID), // routing key
		false,                            // mandatory
		false,                            // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		p.reset()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *SelectionPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
