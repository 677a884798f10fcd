package occupancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/venue-seatmap/internal/model"
)

// ErrSnapshotUnavailable wraps every failure to obtain a snapshot.
var ErrSnapshotUnavailable = errors.New("occupancy snapshot unavailable")

// SnapshotSource fetches the current status of every non-available seat
// of an event.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context, eventID string) ([]model.OccupancyEntry, error)
}

// HTTPSnapshotSource reads snapshots from the ticketing REST API at
// GET {BaseURL}/events/{eventID}/seats.
type HTTPSnapshotSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSnapshotSource returns a source with a bounded client timeout.
func NewHTTPSnapshotSource(baseURL string) *HTTPSnapshotSource {
	return &HTTPSnapshotSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchSnapshot implements SnapshotSource.  The body is either a bare
// JSON array of entries or an object with an "items" array.
func (s *HTTPSnapshotSource) FetchSnapshot(ctx context.Context, eventID string) ([]model.OccupancyEntry, error) {
	if eventID == "" {
		return nil, fmt.Errorf("%w: empty event id", ErrSnapshotUnavailable)
	}
	endpoint := s.BaseURL + "/events/" + url.PathEscape(eventID) + "/seats"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSnapshotUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	return decodeSnapshot(body)
}

func decodeSnapshot(body []byte) ([]model.OccupancyEntry, error) {
	var entries []model.OccupancyEntry
	if err := json.Unmarshal(body, &entries); err == nil {
		return entries, nil
	}
	var wrapped struct {
		Items []model.OccupancyEntry `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSnapshotUnavailable, err)
	}
	return wrapped.Items, nil
}
