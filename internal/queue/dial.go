package queue

import (
	"context"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DialTimeout bounds the TCP connect and AMQP handshake of Dial.
const DialTimeout = 10 * time.Second

// Dial opens a broker connection that gives up when ctx ends, during the
// TCP connect as well as during the AMQP handshake.  ctx has no effect on
// the connection once Dial returns.
func Dial(ctx context.Context, url string) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var stop func() bool
	cfg := amqp.Config{
		Locale: "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Timeout: DialTimeout}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// cleared by the client once the handshake completes
			if err := conn.SetDeadline(time.Now().Add(DialTimeout)); err != nil {
				_ = conn.Close()
				return nil, err
			}
			stop = context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
			return conn, nil
		},
	}
	conn, err := amqp.DialConfig(url, cfg)
	interrupted := stop != nil && !stop()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if interrupted {
		// ctx ended just as the handshake completed
		_ = conn.Close()
		return nil, ctx.Err()
	}
	return conn, nil
}
