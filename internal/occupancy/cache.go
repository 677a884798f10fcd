package occupancy

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-seatmap/internal/config"
	"github.com/iliyamo/venue-seatmap/internal/model"
)

// CachedSnapshotSource is a Redis read-through cache in front of another
// SnapshotSource.  Many viewers of the same event share one backend
// fetch per TTL window.  With caching disabled or no Redis client it
// simply delegates.
type CachedSnapshotSource struct {
	next SnapshotSource
	rdb  *redis.Client
	cfg  config.SnapshotCacheConfig
}

// NewCachedSnapshotSource wraps next.  rdb may be nil.
func NewCachedSnapshotSource(next SnapshotSource, rdb *redis.Client, cfg config.SnapshotCacheConfig) *CachedSnapshotSource {
	return &CachedSnapshotSource{next: next, rdb: rdb, cfg: cfg}
}

func (c *CachedSnapshotSource) key(eventID string) string {
	return c.cfg.Prefix + ":event:" + eventID
}

// FetchSnapshot implements SnapshotSource.  Redis errors are never fatal;
// the cache is skipped and the backend is asked directly.
func (c *CachedSnapshotSource) FetchSnapshot(ctx context.Context, eventID string) ([]model.OccupancyEntry, error) {
	if !c.cfg.Enabled || c.rdb == nil {
		return c.next.FetchSnapshot(ctx, eventID)
	}
	key := c.key(eventID)
	if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var entries []model.OccupancyEntry
		if err := json.Unmarshal(bs, &entries); err == nil {
			return entries, nil
		}
		log.Printf("occupancy-cache: dropping undecodable entry %s", key)
	} else if err != redis.Nil {
		log.Printf("occupancy-cache: get %s failed: %v", key, err)
	}

	entries, err := c.next.FetchSnapshot(ctx, eventID)
	if err != nil {
		return nil, err
	}
	ttl := c.cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if payload, err := json.Marshal(entries); err == nil {
		if err := c.rdb.SetEx(ctx, key, payload, ttl).Err(); err != nil {
			log.Printf("occupancy-cache: set %s failed: %v", key, err)
		}
	}
	return entries, nil
}
