package statscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/metalforge/sheetcost/internal/toolpath"
)

// Redis is a Cache backed by a remote Redis instance, for deployments
// that run several costing processes against one shared memo store.
// Get/Put are the only suspension points the engine ever has, per the
// concurrency model's "storage backend may be remote" clause; every
// other call in this module is synchronous and CPU-bound.
type Redis struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a Redis-backed Cache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, defaults to "sheetcost:stats:"
	TTL      time.Duration // 0 disables expiry; content-addressed entries never go stale
}

// NewRedis dials addr and verifies connectivity with a bounded ping,
// the same health-check pattern the example backend's pub/sub client
// uses before it is handed to callers.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("statscache: redis addr required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "sheetcost:stats:"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("statscache: redis ping: %w", err)
	}

	return &Redis{rdb: rdb, prefix: prefix, ttl: opts.TTL}, nil
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key toolpath.ContentHash) (toolpath.Stats, bool, error) {
	raw, err := r.rdb.Get(ctx, r.prefix+key.String()).Bytes()
	if err == goredis.Nil {
		return toolpath.Stats{}, false, nil
	}
	if err != nil {
		return toolpath.Stats{}, false, fmt.Errorf("statscache: redis get: %w", err)
	}
	var stats toolpath.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return toolpath.Stats{}, false, fmt.Errorf("statscache: decode cached stats: %w", err)
	}
	return stats, true, nil
}

// Put implements Cache.
func (r *Redis) Put(ctx context.Context, key toolpath.ContentHash, stats toolpath.Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("statscache: encode stats: %w", err)
	}
	if err := r.rdb.Set(ctx, r.prefix+key.String(), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("statscache: redis set: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
