package live

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type fakeSub struct {
	msgs   chan []byte
	broken chan struct{}
	closed chan struct{}
	once   sync.Once
}

func (s *fakeSub) Next(ctx context.Context) ([]byte, error) {
	select {
	case b := <-s.msgs:
		return b, nil
	case <-s.broken:
		return nil, errors.New("connection reset")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *fakeSub) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeTransport struct {
	mu     sync.Mutex
	fails  int
	topics []string
	subs   chan *fakeSub
}

func newFakeTransport(fails int) *fakeTransport {
	return &fakeTransport{fails: fails, subs: make(chan *fakeSub, 8)}
}

func (t *fakeTransport) Subscribe(_ context.Context, topic string) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.topics = append(t.topics, topic)
	if t.fails > 0 {
		t.fails--
		return nil, errors.New("broker down")
	}
	s := &fakeSub{msgs: make(chan []byte, 8), broken: make(chan struct{}), closed: make(chan struct{})}
	t.subs <- s
	return s, nil
}

type recorder struct {
	ids    chan []string
	states chan State
}

func newRecorder() *recorder {
	return &recorder{ids: make(chan []string, 16), states: make(chan State, 64)}
}

func (r *recorder) options() Options {
	return Options{
		ReconnectDelay: 10 * time.Millisecond,
		OnReserved:     func(_ context.Context, ids []string) { r.ids <- ids },
		OnState:        func(s State) { r.states <- s },
	}
}

func (r *recorder) waitState(t *testing.T, want State) {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case s := <-r.states:
			if s == want {
				return
			}
		case <-deadline:
			t.Fatalf("state %s never reached", want)
		}
	}
}

func (r *recorder) nextIDs(t *testing.T) []string {
	t.Helper()
	select {
	case ids := <-r.ids:
		return ids
	case <-time.After(waitFor):
		t.Fatal("no reservation delivered")
		return nil
	}
}

func nextSub(t *testing.T, tr *fakeTransport) *fakeSub {
	t.Helper()
	select {
	case s := <-tr.subs:
		return s
	case <-time.After(waitFor):
		t.Fatal("no subscription")
		return nil
	}
}

func TestChannelDeliversReservations(t *testing.T) {
	tr := newFakeTransport(0)
	rec := newRecorder()
	ch := NewChannel("m1", tr, rec.options())
	require.NoError(t, ch.Start())
	defer ch.Stop()

	sub := nextSub(t, tr)
	rec.waitState(t, StateConnected)

	sub.msgs <- []byte(`["A_0_1","A_0_2"]`)
	assert.Equal(t, []string{"A_0_1", "A_0_2"}, rec.nextIDs(t))

	sub.msgs <- []byte(`not json`)
	sub.msgs <- []byte(`{"ids":["x"]}`)
	sub.msgs <- []byte(`["t1"]`)
	assert.Equal(t, []string{"t1"}, rec.nextIDs(t), "malformed payloads are dropped")
	assert.Equal(t, StateConnected, ch.State())

	tr.mu.Lock()
	assert.Equal(t, []string{"/seat-map/m1"}, tr.topics)
	tr.mu.Unlock()
}

func TestChannelReconnects(t *testing.T) {
	tr := newFakeTransport(2)
	rec := newRecorder()
	ch := NewChannel("m1", tr, rec.options())
	require.NoError(t, ch.Start())
	defer ch.Stop()

	rec.waitState(t, StateError)
	first := nextSub(t, tr)
	rec.waitState(t, StateConnected)

	close(first.broken)
	rec.waitState(t, StateError)
	second := nextSub(t, tr)
	rec.waitState(t, StateConnected)

	select {
	case <-first.closed:
	case <-time.After(waitFor):
		t.Fatal("dropped subscription was not closed")
	}
	second.msgs <- []byte(`["B_1_1"]`)
	assert.Equal(t, []string{"B_1_1"}, rec.nextIDs(t))
}

func TestChannelStopIsSynchronous(t *testing.T) {
	tr := newFakeTransport(0)
	rec := newRecorder()
	ch := NewChannel("m1", tr, rec.options())
	require.NoError(t, ch.Start())
	require.NoError(t, ch.Start(), "second start is a no-op")

	sub := nextSub(t, tr)
	rec.waitState(t, StateConnected)

	ch.Stop()
	select {
	case <-sub.closed:
	default:
		t.Fatal("subscription still open after Stop")
	}
	assert.Equal(t, StateDisconnected, ch.State())

	sub.msgs <- []byte(`["A_0_0"]`)
	select {
	case ids := <-rec.ids:
		t.Fatalf("callback after stop: %v", ids)
	case <-time.After(50 * time.Millisecond):
	}

	assert.ErrorIs(t, ch.Start(), ErrStopped)
	ch.Stop()
}

func TestChannelStopUnblocksCallback(t *testing.T) {
	tr := newFakeTransport(0)
	entered := make(chan struct{})
	ch := NewChannel("m1", tr, Options{
		OnReserved: func(ctx context.Context, _ []string) {
			close(entered)
			<-ctx.Done()
		},
	})
	require.NoError(t, ch.Start())
	sub := nextSub(t, tr)
	sub.msgs <- []byte(`["A_0_0"]`)
	<-entered

	stopped := make(chan struct{})
	go func() { ch.Stop(); close(stopped) }()
	select {
	case <-stopped:
	case <-time.After(waitFor):
		t.Fatal("Stop blocked on a busy callback")
	}
}

func TestDecodeReserved(t *testing.T) {
	cases := []struct {
		in   string
		want []string
		err  bool
	}{
		{`["a","","b"]`, []string{"a", "b"}, false},
		{`[]`, []string{}, false},
		{`{}`, nil, true},
		{`"A_0_0"`, nil, true},
		{`[1,2]`, nil, true},
		{``, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := DecodeReserved([]byte(tc.in))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "error", StateError.String())
}

// stompBroker is a minimal STOMP-over-websocket push server.
type stompBroker struct {
	*httptest.Server
	subscribed chan string
	push       chan []byte
}

func newStompBroker(t *testing.T) *stompBroker {
	b := &stompBroker{subscribed: make(chan string, 4), push: make(chan []byte, 4)}
	up := websocket.Upgrader{Subprotocols: []string{"v12.stomp"}}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		readFrame := func() (Frame, error) {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return Frame{}, err
			}
			return ParseFrame(data)
		}
		f, err := readFrame()
		if err != nil || f.Command != CmdConnect {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage,
			NewFrame(CmdConnected, "version", "1.2", "heart-beat", "0,0").Marshal())
		f, err = readFrame()
		if err != nil || f.Command != CmdSubscribe {
			return
		}
		id, _ := f.Header("id")
		dest, _ := f.Header("destination")
		b.subscribed <- dest

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for {
			select {
			case body := <-b.push:
				msg := NewFrame(CmdMessage, "subscription", id, "destination", dest, "message-id", "1")
				msg.Body = body
				if err := conn.WriteMessage(websocket.TextMessage, msg.Marshal()); err != nil {
					return
				}
			case <-gone:
				return
			}
		}
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *stompBroker) wsURL() string { return "ws" + strings.TrimPrefix(b.URL, "http") + "/ws" }

func TestWebSocketTransportEndToEnd(t *testing.T) {
	broker := newStompBroker(t)
	rec := newRecorder()
	ch := NewChannel("m42", NewWebSocketTransport(broker.wsURL()), rec.options())
	require.NoError(t, ch.Start())

	select {
	case dest := <-broker.subscribed:
		assert.Equal(t, "/seat-map/m42", dest)
	case <-time.After(waitFor):
		t.Fatal("client never subscribed")
	}
	rec.waitState(t, StateConnected)

	broker.push <- []byte(`["A_0_1"]`)
	assert.Equal(t, []string{"A_0_1"}, rec.nextIDs(t))
	broker.push <- []byte(`garbage`)
	broker.push <- []byte(`["t7","t8"]`)
	assert.Equal(t, []string{"t7", "t8"}, rec.nextIDs(t))

	ch.Stop()
	assert.Equal(t, StateDisconnected, ch.State())
}

func TestWebSocketTransportDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	tr := NewWebSocketTransport("ws" + strings.TrimPrefix(srv.URL, "http"))

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, err := tr.Subscribe(ctx, Topic("m1"))
	assert.Error(t, err)
}
