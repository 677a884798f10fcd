package config

import "time"

// SnapshotCacheConfig controls the Redis read-through cache placed in
// front of the occupancy snapshot API.  When Enabled is false or no Redis
// client is configured, every viewer fetches its own snapshot.  TTL
// bounds how stale a cached snapshot may be; keep it short because the
// push channel only ever adds reservations.
type SnapshotCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadSnapshotCacheConfig reads SNAPSHOT_CACHE_* variables.
func LoadSnapshotCacheConfig() SnapshotCacheConfig {
	cfg := SnapshotCacheConfig{
		Enabled: envBool("SNAPSHOT_CACHE_ENABLED", true),
		TTL:     envDur("SNAPSHOT_CACHE_TTL", 5*time.Second),
		Prefix:  envStr("SNAPSHOT_CACHE_PREFIX", "occupancy"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Second
	}
	return cfg
}
