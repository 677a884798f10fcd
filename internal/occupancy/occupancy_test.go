package occupancy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-seatmap/internal/config"
	"github.com/iliyamo/venue-seatmap/internal/model"
)

func TestStoreUnknownIsAvailable(t *testing.T) {
	s := NewStore()
	assert.Equal(t, model.StatusAvailable, s.Status("A_0_0"))
	assert.False(t, s.IsTaken("A_0_0"))
}

func TestStoreMarkReservedIsIdempotent(t *testing.T) {
	s := NewStore()

	assert.Equal(t, 1, s.MarkReserved("S1_0_0"))
	assert.Equal(t, model.StatusReserved, s.Status("S1_0_0"))
	v := s.Version()

	assert.Equal(t, 0, s.MarkReserved("S1_0_0"))
	assert.Equal(t, model.StatusReserved, s.Status("S1_0_0"))
	assert.Equal(t, v, s.Version(), "no-op must not bump the version")
	assert.Equal(t, 1, s.Len())
}

func TestStoreMarkReservedOverwritesButNeverReverts(t *testing.T) {
	s := NewStore()
	s.Seed([]model.OccupancyEntry{
		{SeatIdentifier: "A_0_0", Status: "SOLD"},
		{SeatIdentifier: "A_0_1", Status: "pending"},
		{SeatIdentifier: "A_0_2", Status: "available"},
		{SeatIdentifier: "", Status: "sold"},
	})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, model.StatusSold, s.Status("A_0_0"))

	s.MarkReserved("A_0_1", "A_0_2")
	assert.Equal(t, model.StatusReserved, s.Status("A_0_1"))
	assert.Equal(t, model.StatusReserved, s.Status("A_0_2"))
	assert.True(t, s.IsTaken("A_0_2"))
}

func TestStoreSeedReplaces(t *testing.T) {
	s := NewStore()
	s.MarkReserved("X_0_0")
	s.Seed([]model.OccupancyEntry{{SeatIdentifier: "Y_0_0", Status: "sold"}})
	assert.Equal(t, model.StatusAvailable, s.Status("X_0_0"))
	assert.Equal(t, model.StatusSold, s.Status("Y_0_0"))
}

func snapshotServer(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path != "/events/ev-1/seats" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSnapshotSource(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"seat_identifier":"A_0_0","status":"sold"},{"seat_identifier":"t1","status":"reserved"}]`},
		{"items wrapper", `{"items":[{"seat_identifier":"A_0_0","status":"sold"},{"seat_identifier":"t1","status":"reserved"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := snapshotServer(t, tt.body, nil)
			entries, err := NewHTTPSnapshotSource(srv.URL+"/").FetchSnapshot(context.Background(), "ev-1")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "t1", entries[1].SeatIdentifier)
			assert.Equal(t, model.StatusReserved, entries[1].Status)
		})
	}
}

func TestHTTPSnapshotSourceErrors(t *testing.T) {
	srv := snapshotServer(t, `not json`, nil)
	src := NewHTTPSnapshotSource(srv.URL)

	_, err := src.FetchSnapshot(context.Background(), "ev-1")
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)

	_, err = src.FetchSnapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)

	_, err = src.FetchSnapshot(context.Background(), "")
	assert.ErrorIs(t, err, ErrSnapshotUnavailable)
}

func TestCachedSnapshotSource(t *testing.T) {
	var hits int32
	srv := snapshotServer(t, `[{"seat_identifier":"A_0_0","status":"sold"}]`, &hits)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.SnapshotCacheConfig{Enabled: true, TTL: time.Minute, Prefix: "occ"}
	src := NewCachedSnapshotSource(NewHTTPSnapshotSource(srv.URL), rdb, cfg)

	for i := 0; i < 3; i++ {
		entries, err := src.FetchSnapshot(context.Background(), "ev-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, model.StatusSold, entries[0].Status)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, mr.Exists("occ:event:ev-1"))

	mr.FastForward(2 * time.Minute)
	_, err := src.FetchSnapshot(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestCachedSnapshotSourceWithoutRedis(t *testing.T) {
	var hits int32
	srv := snapshotServer(t, `[]`, &hits)
	src := NewCachedSnapshotSource(NewHTTPSnapshotSource(srv.URL), nil, config.SnapshotCacheConfig{Enabled: true})

	for i := 0; i < 2; i++ {
		_, err := src.FetchSnapshot(context.Background(), "ev-1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
