package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxDocumentSize bounds a map document read over HTTP.
const maxDocumentSize = 32 << 20

// HTTPMapSource fetches documents from GET {BaseURL}/seat-maps/{id}.  The
// response body is the document blob as stored.
type HTTPMapSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPMapSource returns a source with a bounded client timeout.
func NewHTTPMapSource(baseURL string) *HTTPMapSource {
	return &HTTPMapSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchMap implements MapSource.
func (s *HTTPMapSource) FetchMap(ctx context.Context, mapID string) ([]byte, error) {
	u := s.BaseURL + "/seat-maps/" + url.PathEscape(mapID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrMapNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrSourceUnavailable, u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("%w: document of %s exceeds %d bytes", ErrSourceUnavailable, mapID, maxDocumentSize)
	}
	return body, nil
}
