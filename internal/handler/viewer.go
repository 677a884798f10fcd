package handler // handler package exposes viewer sessions over HTTP

import (
	"bytes"         // bytes restores a peeked request body
	"encoding/json" // json peeks at the pointer input kind
	"errors"        // errors.Is matches viewer sentinels
	"io"            // io reads the request body
	"log"           // log reports websocket stream failures
	"math"          // math rejects NaN ratios
	"net/http"      // http defines status code constants
	"strconv"       // strconv formats the frame sequence
	"strings"       // strings trims ids from the request body
	"time"          // time bounds websocket writes

	"github.com/gorilla/websocket" // websocket carries the notice stream to the page
	"github.com/labstack/echo/v4"  // echo framework supplies request context
	"golang.org/x/time/rate"       // rate drops excess pointer moves on the websocket

	"github.com/iliyamo/venue-seatmap/internal/render" // render defines the canvas limits
	"github.com/iliyamo/venue-seatmap/internal/viewer" // viewer owns sessions and their state
)

const (
	wsWriteTimeout = 5 * time.Second
	wsMoveRate     = 120 // pointer moves per second accepted over the websocket
)

// ViewerHandler serves the /v1/viewers API.  Every session is addressed by
// the id returned from Create.
type ViewerHandler struct {
	Manager  *viewer.Manager
	Upgrader websocket.Upgrader
	MoveRate rate.Limit // per-connection pointer-move budget of Events
}

// NewViewerHandler returns a handler backed by m.
func NewViewerHandler(m *viewer.Manager) *ViewerHandler {
	return &ViewerHandler{
		Manager:  m,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true }, // the page is served from another origin
		},
		MoveRate: wsMoveRate,
	}
}

// viewerError maps session errors to a JSON response.
func viewerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, viewer.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "viewer not found"})
	case errors.Is(err, viewer.ErrSessionClosed):
		return c.JSON(http.StatusGone, echo.Map{"error": "viewer closed"})
	case errors.Is(err, viewer.ErrUnknownInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// canvasLimitError describes a canvas request over the surface limits, or
// returns "" when it fits.
func canvasLimitError(width, height int, dpr float64) string {
	if width > render.MaxCSSSide || height > render.MaxCSSSide {
		return "width and height must not exceed " + strconv.Itoa(render.MaxCSSSide)
	}
	if dpr > render.MaxDPR || math.IsNaN(dpr) {
		return "dpr must not exceed " + strconv.FormatFloat(render.MaxDPR, 'f', -1, 64)
	}
	return ""
}

// session resolves the :id path parameter.
func (h *ViewerHandler) session(c echo.Context) (*viewer.Session, error) {
	return h.Manager.Get(c.Param("id"))
}

// Create handles POST /v1/viewers and opens a session on the requested map.
func (h *ViewerHandler) Create(c echo.Context) error {
	var body viewer.Options               // map, event and canvas size
	if err := c.Bind(&body); err != nil { // bind the incoming JSON
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.MapID = strings.TrimSpace(body.MapID)     // ids are compared verbatim downstream
	body.EventID = strings.TrimSpace(body.EventID) // an empty event means no occupancy
	if body.MapID == "" {                          // a viewer always shows a map
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mapId is required"})
	}
	if body.Width < 0 || body.Height < 0 || body.DPR < 0 { // zero falls back to the manager defaults
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "width, height and dpr must not be negative"})
	}
	if msg := canvasLimitError(body.Width, body.Height, body.DPR); msg != "" { // refuse bitmaps we would not allocate
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	s := h.Manager.Create(body) // starts the session loop and the map load
	st, err := s.State()        // loading is still true at this point
	if err != nil {
		return viewerError(c, err)
	}
	return c.JSON(http.StatusCreated, st) // respond with the new session id
}

// Delete handles DELETE /v1/viewers/:id.
func (h *ViewerHandler) Delete(c echo.Context) error {
	if err := h.Manager.Close(c.Param("id")); err != nil { // close stops the live channel before returning
		return viewerError(c, err)
	}
	return c.NoContent(http.StatusNoContent) // nothing left to describe
}

// Retarget handles PUT /v1/viewers/:id/map.  An omitted mapId keeps the
// current map so the event can change on its own.
func (h *ViewerHandler) Retarget(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return viewerError(c, err)
	}
	var body struct { // anonymous struct to bind JSON payload
		MapID   *string `json:"mapId"`   // nil keeps the current map
		EventID string  `json:"eventId"` // empty clears the occupancy
	}
	if err := c.Bind(&body); err != nil { // bind the incoming JSON
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	st, err := s.State() // current map for an omitted mapId
	if err != nil {
		return viewerError(c, err)
	}
	mapID := st.MapID
	if body.MapID != nil { // an explicit mapId wins, even when blank
		mapID = strings.TrimSpace(*body.MapID)
	}
	if mapID == "" { // a blank map would leave the viewer empty
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mapId is required"})
	}
	if err := s.Retarget(mapID, strings.TrimSpace(body.EventID)); err != nil { // a new map clears the selection
		return viewerError(c, err)
	}
	return h.writeState(c, s) // respond with the state after the swap
}

// Resize handles POST /v1/viewers/:id/resize.
func (h *ViewerHandler) Resize(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return viewerError(c, err)
	}
	var body struct { // anonymous struct to bind JSON payload
		Width  int     `json:"width"`  // container width in CSS pixels
		Height int     `json:"height"` // container height in CSS pixels
		DPR    float64 `json:"dpr"`    // device pixel ratio, 0 means 1
	}
	if err := c.Bind(&body); err != nil { // bind the incoming JSON
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Width <= 0 || body.Height <= 0 { // a resize always names both sides
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "width and height must be greater than zero"})
	}
	if msg := canvasLimitError(body.Width, body.Height, body.DPR); msg != "" { // refuse bitmaps we would not allocate
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := s.Resize(body.Width, body.Height, body.DPR); err != nil { // repaints before returning
		return viewerError(c, err)
	}
	return h.writeState(c, s) // respond with the new canvas size
}

// SkipUnlessMove reports whether a pointer request carries anything but a
// move, so only moves spend rate-limit tokens.  The body is restored for
// the handler.
func SkipUnlessMove(c echo.Context) bool {
	req := c.Request()
	blob, err := io.ReadAll(req.Body) // pointer bodies are a few dozen bytes
	req.Body = io.NopCloser(bytes.NewReader(blob))
	if err != nil {
		return false
	}
	var in struct {
		Kind viewer.InputKind `json:"type"`
	}
	if err := json.Unmarshal(blob, &in); err != nil {
		return false // malformed input is limited like a move
	}
	return in.Kind != viewer.InputMove
}

// Pointer handles POST /v1/viewers/:id/pointer with one viewer.Input.
func (h *ViewerHandler) Pointer(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return viewerError(c, err)
	}
	var in viewer.Input                 // one pointer or wheel event
	if err := c.Bind(&in); err != nil { // bind the incoming JSON
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := s.Handle(in) // runs on the session loop
	if err != nil {          // unknown kinds map to bad request
		return viewerError(c, err)
	}
	return c.JSON(http.StatusOK, res) // selection and denial in one response
}

// Frame handles GET /v1/viewers/:id/frame.png.  The ETag is the frame
// sequence so polling clients only download changed frames.
func (h *ViewerHandler) Frame(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return viewerError(c, err)
	}
	f := s.Frame() // latest encoded frame, never blocks on the loop
	if f == nil {  // the first paint has not happened yet
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "frame not ready"})
	}
	tag := `"` + strconv.FormatUint(f.Seq, 10) + `"` // strong ETag from the frame sequence
	hdr := c.Response().Header()
	hdr.Set("ETag", tag)
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("X-Frame-Width", strconv.Itoa(f.Width))
	hdr.Set("X-Frame-Height", strconv.Itoa(f.Height))
	if c.Request().Header.Get("If-None-Match") == tag { // client already holds this frame
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, "image/png", f.PNG) // send the PNG bytes
}

// Selection handles GET /v1/viewers/:id/selection.
func (h *ViewerHandler) Selection(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return viewerError(c, err)
	}
	sel, err := s.Selection() // copy taken on the session loop
	if err != nil {
		return viewerError(c, err)
	}
	return c.JSON(http.StatusOK, viewer.SelectionData{Selection: sel}) // same shape as the selection notice
}

// State handles GET /v1/viewers/:id/state.
func (h *ViewerHandler) State(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return viewerError(c, err)
	}
	return h.writeState(c, s)
}

func (h *ViewerHandler) writeState(c echo.Context, s *viewer.Session) error {
	st, err := s.State()
	if err != nil {
		return viewerError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Events handles GET /v1/viewers/:id/events.  It upgrades to a websocket
// that first receives the current connection state and selection, then
// every notice of the session.  Text messages from the page are decoded
// as viewer.Input and applied; their effects arrive as notices.  Pointer
// moves over the MoveRate budget are dropped, other input never is.
func (h *ViewerHandler) Events(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return viewerError(c, err)
	}
	sel, err := s.Selection() // initial selection for the page
	if err != nil {
		return viewerError(c, err)
	}
	notices, unsubscribe := s.Subscribe() // subscribe before upgrading so nothing is missed
	defer unsubscribe()

	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil // the upgrader has already written the response
	}
	defer conn.Close()

	write := func(n viewer.Notice) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(n)
	}
	if err := write(viewer.Notice{Type: viewer.NoticeConnection, Data: viewer.ConnectionData{State: s.ConnectionState().String()}}); err != nil {
		return nil
	}
	if err := write(viewer.Notice{Type: viewer.NoticeSelection, Data: viewer.SelectionData{Selection: sel}}); err != nil {
		return nil
	}

	moves := rate.NewLimiter(h.MoveRate, int(h.MoveRate)+1) // one second of burst
	gone := make(chan struct{})                             // closed when the page stops sending
	go func() {
		defer close(gone)
		for {
			var in viewer.Input
			if err := conn.ReadJSON(&in); err != nil { // the page went away
				return
			}
			if in.Kind == viewer.InputMove && !moves.Allow() { // drop moves over budget, never clicks
				continue
			}
			if _, err := s.Handle(in); err != nil {
				if errors.Is(err, viewer.ErrSessionClosed) {
					return
				}
				log.Printf("viewer-events: %s: %v", s.ID(), err)
			}
		}
	}()

	for {
		select {
		case n, ok := <-notices:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "viewer closed"),
					time.Now().Add(wsWriteTimeout))
				return nil
			}
			if err := write(n); err != nil {
				return nil
			}
		case <-gone:
			return nil
		}
	}
}
