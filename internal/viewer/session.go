// Package viewer runs seat-map viewer sessions.
//
// A Session owns one map view: scene, view state, hover, selection,
// occupancy, live channel and drawing surface.  All of that state is
// touched only by the session's event loop goroutine.  Input, resizes
// and retargets are marshalled onto the loop; async loads and pushed
// reservations post their results back to it.  Pointer-move repaints
// are coalesced to one per frame tick; every other repaint is immediate.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/venue-seatmap/internal/interaction"
	"github.com/iliyamo/venue-seatmap/internal/live"
	"github.com/iliyamo/venue-seatmap/internal/model"
	"github.com/iliyamo/venue-seatmap/internal/occupancy"
	"github.com/iliyamo/venue-seatmap/internal/queue"
	"github.com/iliyamo/venue-seatmap/internal/render"
	"github.com/iliyamo/venue-seatmap/internal/repository"
)

var (
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("viewer session not found")
	// ErrSessionClosed is returned by calls on a closed session.
	ErrSessionClosed = errors.New("viewer session closed")
	// ErrUnknownInput is returned for an input kind the session does not handle.
	ErrUnknownInput = errors.New("unknown input kind")
)

const (
	defaultFrameInterval = 16 * time.Millisecond
	loadTimeout          = 30 * time.Second
	publishTimeout       = 5 * time.Second
)

// SelectionPublisher forwards selection changes to downstream consumers.
type SelectionPublisher interface {
	PublishSelectionChanged(ctx context.Context, event queue.SelectionChangedEvent) error
}

// Deps are the collaborators shared by every session.  Transport and
// Publisher may be nil.
type Deps struct {
	Maps           repository.MapSource
	Snapshots      occupancy.SnapshotSource
	Transport      live.Transport
	Publisher      SelectionPublisher
	FrameInterval  time.Duration
	ReconnectDelay time.Duration
}

// Options select the map and the canvas of a session.
type Options struct {
	MapID   string  `json:"mapId"`
	EventID string  `json:"eventId"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	DPR     float64 `json:"dpr"`
}

// Frame is an encoded rendering of the surface.
type Frame struct {
	Seq    uint64
	PNG    []byte
	Width  int
	Height int
}

// Session is one viewer.  Its methods are safe for concurrent use.
type Session struct {
	id   string
	deps Deps

	events    chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	publishCh chan queue.SelectionChangedEvent

	notices   broadcaster
	frame     atomic.Pointer[Frame]
	connState atomic.Int32

	// owned by the loop goroutine
	mapID       string
	eventID     string
	mapGen      uint64
	snapGen     uint64
	mapPending  bool
	snapPending bool
	loadErr     string
	skipped     int
	centered    bool
	dirty       bool
	seq         uint64
	drawnOcc    uint64 // occupancy version of the last frame
	ctrl        *interaction.Controller
	occ         *occupancy.Store
	surface     *render.Surface
	renderer    *render.Renderer
	channel     *live.Channel
	cancelMap   context.CancelFunc
	cancelSnap  context.CancelFunc
}

// NewSession starts a session and begins loading opts.MapID.
func NewSession(id string, deps Deps, opts Options) *Session {
	if deps.FrameInterval <= 0 {
		deps.FrameInterval = defaultFrameInterval
	}
	occ := occupancy.NewStore()
	s := &Session{
		id:       id,
		deps:     deps,
		events:   make(chan func(), 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		occ:      occ,
		ctrl:     interaction.NewController(occ),
		surface:  render.NewSurface(opts.Width, opts.Height, opts.DPR),
		renderer: render.NewRenderer(),
	}
	if deps.Publisher != nil {
		s.publishCh = make(chan queue.SelectionChangedEvent, 1)
		go s.publishLoop()
	}
	s.mount(opts.MapID, opts.EventID)
	go s.loop()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.deps.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case fn := <-s.events:
			fn()
		case <-ticker.C:
			if s.dirty {
				s.redraw()
			}
		case <-s.quit:
			s.unmount()
			s.notices.close()
			return
		}
	}
}

// call runs fn on the loop and waits for it.
func (s *Session) call(fn func()) error {
	ran := make(chan struct{})
	select {
	case s.events <- func() { fn(); close(ran) }:
	case <-s.quit:
		return ErrSessionClosed
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// post queues fn from an async source; it gives up when ctx ends or the
// session closes.
func (s *Session) post(ctx context.Context, fn func()) bool {
	select {
	case s.events <- fn:
		return true
	case <-ctx.Done():
		return false
	case <-s.quit:
		return false
	}
}

// Close stops the live channel, the frame ticker and the loop, and
// closes every notice subscriber.  It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

// Subscribe returns the session's notice stream and a function that
// ends the subscription.  The stream is closed when the session closes.
func (s *Session) Subscribe() (<-chan Notice, func()) { return s.notices.subscribe() }

// Frame returns the latest rendering.
func (s *Session) Frame() *Frame { return s.frame.Load() }

// ConnectionState returns the live channel state.
func (s *Session) ConnectionState() live.State { return live.State(s.connState.Load()) }

// mount tears down the current map context and starts loading mapID.
// The previous live channel is stopped before the next one is created.
func (s *Session) mount(mapID, eventID string) {
	s.unmount()
	s.dropScene()
	s.mapGen++
	s.mapID, s.eventID = mapID, eventID
	s.occ.Seed(nil)
	s.loadErr, s.skipped = "", 0
	s.loadMap(mapID)
	s.loadSnapshot(eventID)

	if s.deps.Transport != nil && mapID != "" {
		gen := s.mapGen
		s.channel = live.NewChannel(mapID, s.deps.Transport, live.Options{
			ReconnectDelay: s.deps.ReconnectDelay,
			OnReserved: func(ctx context.Context, ids []string) {
				s.post(ctx, func() { s.applyReserved(gen, ids) })
			},
			OnState: s.setConnState,
		})
		if err := s.channel.Start(); err != nil {
			log.Printf("viewer: %s: live channel for %s: %v", s.id, mapID, err)
		}
	}
}

// dropScene empties the scene.  A non-empty selection is announced as
// cleared, tagged with the map it belonged to.
func (s *Session) dropScene() {
	had := len(s.ctrl.Selection()) > 0
	s.ctrl.SetScene(nil, nil)
	if !had {
		return
	}
	sel := s.ctrl.Selection()
	s.notices.publish(Notice{Type: NoticeSelection, Data: SelectionData{Selection: sel}})
	s.queuePublish(sel)
}

// unmount stops the live channel synchronously and abandons in-flight
// loads.
func (s *Session) unmount() {
	if s.cancelMap != nil {
		s.cancelMap()
		s.cancelMap = nil
	}
	if s.cancelSnap != nil {
		s.cancelSnap()
		s.cancelSnap = nil
	}
	s.mapPending, s.snapPending = false, false
	if s.channel != nil {
		s.channel.Stop()
		s.channel = nil
	}
}

func (s *Session) setConnState(st live.State) {
	if live.State(s.connState.Swap(int32(st))) == st {
		return
	}
	s.notices.publish(Notice{Type: NoticeConnection, Data: ConnectionData{State: st.String()}})
}

func (s *Session) loadMap(mapID string) {
	if mapID == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelMap = cancel
	s.mapPending = true
	gen := s.mapGen
	maps := s.deps.Maps
	go func() {
		var doc model.Document
		err := repository.ErrMapNotFound
		if maps != nil {
			lctx, cancel := context.WithTimeout(ctx, loadTimeout)
			var blob []byte
			blob, err = maps.FetchMap(lctx, mapID)
			cancel()
			if err == nil {
				doc, err = model.DecodeDocument(blob)
			}
		}
		s.post(ctx, func() {
			if gen != s.mapGen {
				return
			}
			s.mapPending = false
			s.finishMap(mapID, doc, err)
		})
	}()
}

func (s *Session) finishMap(mapID string, doc model.Document, err error) {
	data := LoadedData{MapID: mapID}
	if err != nil {
		log.Printf("viewer: %s: load map %s: %v", s.id, mapID, err)
		s.loadErr = err.Error()
		data.Error = s.loadErr
	} else {
		s.ctrl.SetScene(doc.Objects, doc.Tiers)
		s.skipped = doc.Skipped
		if doc.Skipped > 0 {
			log.Printf("viewer: %s: map %s: skipped %d undecodable entries", s.id, mapID, doc.Skipped)
		}
		data.Objects, data.Tiers, data.Skipped = len(doc.Objects), len(doc.Tiers), doc.Skipped
		s.autoCenter()
	}
	s.notices.publish(Notice{Type: NoticeLoaded, Data: data})
	s.redraw()
}

// autoCenter moves the world origin to the middle of the container the
// first time a scene with geometry arrives.
func (s *Session) autoCenter() {
	if s.centered || len(s.ctrl.Objects()) == 0 {
		return
	}
	w, h := s.surface.CSSSize()
	s.ctrl.SetOffset(model.Point{X: float64(w) / 2, Y: float64(h) / 2})
	s.centered = true
}

func (s *Session) loadSnapshot(eventID string) {
	if s.cancelSnap != nil {
		s.cancelSnap()
		s.cancelSnap = nil
	}
	s.snapGen++
	s.snapPending = false
	if eventID == "" || s.deps.Snapshots == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelSnap = cancel
	s.snapPending = true
	gen := s.snapGen
	src := s.deps.Snapshots
	go func() {
		lctx, cancel := context.WithTimeout(ctx, loadTimeout)
		entries, err := src.FetchSnapshot(lctx, eventID)
		cancel()
		s.post(ctx, func() {
			if gen != s.snapGen {
				return
			}
			s.snapPending = false
			if err != nil {
				log.Printf("viewer: %s: occupancy snapshot for event %s: %v", s.id, eventID, err)
			} else {
				s.occ.Seed(entries)
			}
			s.redraw()
		})
	}()
}

func (s *Session) applyReserved(gen uint64, ids []string) {
	if gen != s.mapGen {
		return
	}
	s.occ.MarkReserved(ids...)
	if s.occ.Version() != s.drawnOcc {
		s.redraw()
	}
}

// redraw repaints the surface and publishes the encoded frame.
func (s *Session) redraw() {
	s.dirty = false
	s.drawnOcc = s.occ.Version()
	sc := render.Scene{
		Objects:   s.ctrl.Objects(),
		Tiers:     s.ctrl.Tiers(),
		Occupancy: s.occ,
		View:      s.ctrl.View(),
		Selected:  s.ctrl.SelectedIDs(),
	}
	if h := s.ctrl.Hover(); h != nil {
		sc.HoverObject, sc.HoverSeat = h.ObjectID, h.Seat
	}
	s.renderer.Render(s.surface, sc)

	var buf bytes.Buffer
	if err := s.surface.EncodePNG(&buf); err != nil {
		log.Printf("viewer: %s: encode frame: %v", s.id, err)
		return
	}
	s.seq++
	w, h := s.surface.PixelSize()
	s.frame.Store(&Frame{Seq: s.seq, PNG: buf.Bytes(), Width: w, Height: h})
	s.notices.publish(Notice{Type: NoticeFrame, Data: FrameData{Seq: s.seq, Width: w, Height: h}})
}

// InputKind names a pointer or wheel event.
type InputKind string

const (
	InputDown  InputKind = "down"
	InputMove  InputKind = "move"
	InputUp    InputKind = "up"
	InputLeave InputKind = "leave"
	InputWheel InputKind = "wheel"
)

// Input is one pointer or wheel event in canvas CSS pixels.
type Input struct {
	Kind   InputKind          `json:"type"`
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
	Button interaction.Button `json:"button"`
	Shift  bool               `json:"shift"`
	DeltaY float64            `json:"deltaY"`
}

// InputResult reports what an input did.
type InputResult struct {
	Denied           *DeniedData            `json:"denied,omitempty"`
	SelectionChanged bool                   `json:"selectionChanged"`
	Selection        []model.SelectionEntry `json:"selection"`
	Frame            uint64                 `json:"frame"`
}

// Handle applies one input event.  Click selection re-reads occupancy at
// the moment of the click.
func (s *Session) Handle(in Input) (InputResult, error) {
	var res InputResult
	var inputErr error
	err := s.call(func() {
		pe := interaction.PointerEvent{X: in.X, Y: in.Y, Button: in.Button, Shift: in.Shift}
		var out interaction.Outcome
		switch in.Kind {
		case InputDown:
			out = s.ctrl.PointerDown(pe)
		case InputMove:
			out = s.ctrl.PointerMove(pe)
		case InputUp:
			out = s.ctrl.PointerUp(pe)
		case InputLeave:
			out = s.ctrl.PointerLeave()
		case InputWheel:
			out = s.ctrl.Wheel(interaction.WheelEvent{X: in.X, Y: in.Y, DeltaY: in.DeltaY})
		default:
			inputErr = fmt.Errorf("%w: %q", ErrUnknownInput, in.Kind)
			return
		}
		res = s.apply(out)
	})
	if err != nil {
		return InputResult{}, err
	}
	return res, inputErr
}

func (s *Session) apply(out interaction.Outcome) InputResult {
	res := InputResult{SelectionChanged: out.SelectionChanged, Selection: s.ctrl.Selection()}
	if d := out.Denied; d != nil {
		res.Denied = &DeniedData{Reason: d.Reason, ID: d.ID, Message: d.Message()}
		s.notices.publish(Notice{Type: NoticeDenied, Data: *res.Denied})
	}
	if out.SelectionChanged {
		s.notices.publish(Notice{Type: NoticeSelection, Data: SelectionData{Selection: res.Selection}})
		s.queuePublish(res.Selection)
	}
	switch out.Redraw {
	case interaction.RedrawNow:
		s.redraw()
	case interaction.RedrawNextFrame:
		s.dirty = true
	}
	res.Frame = s.seq
	return res
}

// queuePublish hands the latest selection to the publisher goroutine.
// Each event carries the whole set, so an unsent older event is replaced.
func (s *Session) queuePublish(sel []model.SelectionEntry) {
	if s.publishCh == nil {
		return
	}
	ev := queue.NewSelectionChangedEvent(s.id, s.mapID, s.eventID, sel)
	select {
	case s.publishCh <- ev:
		return
	default:
	}
	select {
	case <-s.publishCh:
	default:
	}
	select {
	case s.publishCh <- ev:
	default:
	}
}

func (s *Session) publishLoop() {
	for {
		select {
		case <-s.quit:
			return
		case ev := <-s.publishCh:
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			if err := s.deps.Publisher.PublishSelectionChanged(ctx, ev); err != nil {
				log.Printf("viewer: %s: publish selection: %v", s.id, err)
			}
			cancel()
		}
	}
}

// Resize matches the surface to the container and repaints immediately.
func (s *Session) Resize(width, height int, dpr float64) error {
	return s.call(func() {
		s.surface.Resize(width, height, dpr)
		s.redraw()
	})
}

// Retarget points the session at another map or event.  A new map id
// tears down the current context, live channel included, and loads the
// new map; a new event id alone only reloads the occupancy snapshot.
func (s *Session) Retarget(mapID, eventID string) error {
	return s.call(func() {
		if mapID != s.mapID {
			s.mount(mapID, eventID)
			s.redraw()
			return
		}
		if eventID != s.eventID {
			s.eventID = eventID
			s.occ.Seed(nil)
			s.loadSnapshot(eventID)
			s.redraw()
		}
	})
}

// Selection returns the current selection set.
func (s *Session) Selection() ([]model.SelectionEntry, error) {
	var sel []model.SelectionEntry
	err := s.call(func() { sel = s.ctrl.Selection() })
	return sel, err
}

// State is a point-in-time view of a session for debugging.
type State struct {
	ID         string                 `json:"id"`
	MapID      string                 `json:"mapId"`
	EventID    string                 `json:"eventId"`
	View       model.ViewState        `json:"view"`
	Mode       string                 `json:"mode"`
	Hover      *interaction.Hover     `json:"hover,omitempty"`
	Connection string                 `json:"connection"`
	Loading    bool                   `json:"loading"`
	LoadError  string                 `json:"loadError,omitempty"`
	Objects    int                    `json:"objects"`
	Skipped    int                    `json:"skipped"`
	Occupied   int                    `json:"occupied"`
	Selection  []model.SelectionEntry `json:"selection"`
	Frame      uint64                 `json:"frame"`
	Width      int                    `json:"width"`
	Height     int                    `json:"height"`
	DPR        float64                `json:"dpr"`
	Listeners  int                    `json:"listeners"`
}

// State returns a debug snapshot.
func (s *Session) State() (State, error) {
	var st State
	err := s.call(func() {
		w, h := s.surface.CSSSize()
		st = State{
			ID:         s.id,
			MapID:      s.mapID,
			EventID:    s.eventID,
			View:       s.ctrl.View(),
			Mode:       s.ctrl.Mode().String(),
			Hover:      s.ctrl.Hover(),
			Connection: s.ConnectionState().String(),
			Loading:    s.mapPending || s.snapPending,
			LoadError:  s.loadErr,
			Objects:    len(s.ctrl.Objects()),
			Skipped:    s.skipped,
			Occupied:   s.occ.Len(),
			Selection:  s.ctrl.Selection(),
			Frame:      s.seq,
			Width:      w,
			Height:     h,
			DPR:        s.surface.DPR(),
			Listeners:  s.notices.count(),
		}
	})
	return st, err
}
