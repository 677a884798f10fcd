package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultHeartbeat = 10 * time.Second
	writeWait        = 10 * time.Second
)

// WebSocketTransport speaks STOMP 1.2 over a websocket to the push broker.
type WebSocketTransport struct {
	// URL is the broker endpoint, e.g. ws://push.example.com/ws.
	URL string
	// Host is sent as the STOMP virtual host; defaults to the URL host.
	Host      string
	Heartbeat time.Duration
	Dialer    *websocket.Dialer
	Header    http.Header
}

// NewWebSocketTransport returns a transport with default heart-beats.
func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{URL: url, Heartbeat: defaultHeartbeat, Dialer: websocket.DefaultDialer}
}

// Subscribe dials the broker, performs the CONNECT handshake and
// subscribes to topic.
func (t *WebSocketTransport) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	dialer := websocket.Dialer{}
	if t.Dialer != nil {
		dialer = *t.Dialer
	}
	dialer.Subprotocols = []string{"v12.stomp"}

	conn, resp, err := dialer.DialContext(ctx, t.URL, t.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", t.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", t.URL, err)
	}

	hb := t.Heartbeat
	if hb < 0 {
		hb = 0
	}
	s := &wsSubscription{
		conn:     conn,
		id:       "sub-" + uuid.NewString(),
		messages: make(chan []byte, 16),
		failed:   make(chan struct{}),
		closed:   make(chan struct{}),
	}
	if err := s.handshake(ctx, t.host(), topic, hb); err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.wg.Add(1)
	go s.readLoop()
	if s.sendEvery > 0 {
		s.wg.Add(1)
		go s.heartbeatLoop()
	}
	return s, nil
}

func (t *WebSocketTransport) host() string {
	if t.Host != "" {
		return t.Host
	}
	h := t.URL
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	if i := strings.IndexAny(h, "/?"); i >= 0 {
		h = h[:i]
	}
	return h
}

type wsSubscription struct {
	conn *websocket.Conn
	id   string

	writeMu   sync.Mutex
	sendEvery time.Duration
	expect    time.Duration

	messages chan []byte
	failed   chan struct{}
	err      error
	closed   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func (s *wsSubscription) handshake(ctx context.Context, host, topic string, hb time.Duration) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(dl)
	} else {
		_ = s.conn.SetReadDeadline(time.Now().Add(writeWait))
	}
	ms := strconv.FormatInt(hb.Milliseconds(), 10)
	connect := NewFrame(CmdConnect,
		"accept-version", "1.2",
		"host", host,
		"heart-beat", ms+","+ms,
	)
	if err := s.write(connect); err != nil {
		return fmt.Errorf("stomp connect: %w", err)
	}

	f, err := s.read()
	if err != nil {
		return fmt.Errorf("stomp connect: %w", err)
	}
	if f.Command == CmdError {
		msg, _ := f.Header("message")
		return fmt.Errorf("stomp connect refused: %s", msg)
	}
	if f.Command != CmdConnected {
		return fmt.Errorf("stomp connect: unexpected %s frame", f.Command)
	}
	serverHB, _ := f.Header("heart-beat")
	s.sendEvery, s.expect = negotiateHeartbeat(hb, serverHB)

	sub := NewFrame(CmdSubscribe, "id", s.id, "destination", topic, "ack", "auto")
	if err := s.write(sub); err != nil {
		return fmt.Errorf("stomp subscribe: %w", err)
	}
	return s.refreshDeadline()
}

// negotiateHeartbeat applies the STOMP rule: each side uses the larger
// of what it offers and what the peer wants, zero meaning never.
func negotiateHeartbeat(client time.Duration, server string) (send, expect time.Duration) {
	sx, sy := parseHeartbeat(server)
	if client > 0 && sy > 0 {
		send = max(client, sy)
	}
	if client > 0 && sx > 0 {
		expect = max(client, sx)
	}
	return send, expect
}

func parseHeartbeat(v string) (time.Duration, time.Duration) {
	a, b, ok := strings.Cut(v, ",")
	if !ok {
		return 0, 0
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(a))
	y, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil || x < 0 || y < 0 {
		return 0, 0
	}
	return time.Duration(x) * time.Millisecond, time.Duration(y) * time.Millisecond
}

func (s *wsSubscription) refreshDeadline() error {
	if s.expect <= 0 {
		return s.conn.SetReadDeadline(time.Time{})
	}
	return s.conn.SetReadDeadline(time.Now().Add(2 * s.expect))
}

func (s *wsSubscription) write(f Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, f.Marshal())
}

func (s *wsSubscription) read() (Frame, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	return ParseFrame(data)
}

func (s *wsSubscription) readLoop() {
	defer s.wg.Done()
	for {
		f, err := s.read()
		if err == nil {
			err = s.refreshDeadline()
		}
		if err != nil {
			s.fail(err)
			return
		}
		switch f.Command {
		case CmdMessage:
			if sub, ok := f.Header("subscription"); ok && sub != s.id {
				continue
			}
			select {
			case s.messages <- f.Body:
			case <-s.closed:
				return
			}
		case CmdError:
			msg, _ := f.Header("message")
			s.fail(fmt.Errorf("stomp error frame: %s", msg))
			return
		}
	}
}

func (s *wsSubscription) heartbeatLoop() {
	defer s.wg.Done()
	t := time.NewTicker(s.sendEvery)
	defer t.Stop()
	for {
		select {
		case <-s.closed:
			return
		case <-s.failed:
			return
		case <-t.C:
			if err := s.write(Frame{}); err != nil {
				s.fail(err)
				return
			}
		}
	}
}

func (s *wsSubscription) fail(err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.failed:
	default:
		s.err = err
		close(s.failed)
	}
}

var errSubscriptionClosed = errors.New("subscription closed")

func (s *wsSubscription) Next(ctx context.Context) ([]byte, error) {
	select {
	case body := <-s.messages:
		return body, nil
	case <-s.failed:
		// deliver what was read before the failure
		select {
		case body := <-s.messages:
			return body, nil
		default:
		}
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		return nil, s.err
	case <-s.closed:
		return nil, errSubscriptionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close unsubscribes, disconnects and waits for the reader to exit.
func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		select {
		case <-s.failed:
		default:
			_ = s.write(NewFrame(CmdUnsubscribe, "id", s.id))
			_ = s.write(NewFrame(CmdDisconnect))
		}
		close(s.closed)
		err = s.conn.Close()
		s.wg.Wait()
	})
	return err
}
