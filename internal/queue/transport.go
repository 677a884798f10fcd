package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/venue-seatmap/internal/live"
)

// SeatMapExchange is the topic exchange reservations are pushed on.
const SeatMapExchange = "seat-map"

// RoutingKey maps a push topic such as /seat-map/m1 to the AMQP routing
// key seat-map.m1.
func RoutingKey(topic string) string {
	return strings.ReplaceAll(strings.Trim(topic, "/"), "/", ".")
}

// AMQPTransport delivers live updates from a RabbitMQ topic exchange.
// Each subscription gets its own exclusive, auto-deleted queue bound to
// the map's routing key, so every viewer sees every reservation.
type AMQPTransport struct {
	URL      string
	Exchange string
}

// NewAMQPTransport returns a transport for the broker at url.
func NewAMQPTransport(url string) *AMQPTransport {
	return &AMQPTransport{URL: url, Exchange: SeatMapExchange}
}

// Subscribe implements live.Transport.
func (t *AMQPTransport) Subscribe(ctx context.Context, topic string) (live.Subscription, error) {
	conn, err := Dial(ctx, t.URL)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	sub := &amqpSubscription{conn: conn, ch: ch}
	if err := sub.bind(t.Exchange, RoutingKey(topic)); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return sub, nil
}

type amqpSubscription struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	msgs   <-chan amqp.Delivery
	closes chan *amqp.Error
}

func (s *amqpSubscription) bind(exchange, key string) error {
	if err := s.ch.Qos(50, 0, false); err != nil {
		log.Printf("seat-map-consumer: set QoS failed: %v", err)
	}
	if err := s.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	q, err := s.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := s.ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind %s: %w", key, err)
	}
	msgs, err := s.ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	s.msgs = msgs
	s.closes = s.conn.NotifyClose(make(chan *amqp.Error, 1))
	return nil
}

func (s *amqpSubscription) Next(ctx context.Context) ([]byte, error) {
	select {
	case d, ok := <-s.msgs:
		if !ok {
			return nil, errors.New("deliveries channel closed")
		}
		return d.Body, nil
	case err, ok := <-s.closes:
		if ok && err != nil {
			return nil, fmt.Errorf("connection closed: %w", err)
		}
		return nil, errors.New("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *amqpSubscription) Close() error {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	return s.conn.Close()
}
