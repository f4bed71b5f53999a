// Package cache provides a small byte-oriented TTL cache used for the
// doctor and department listings. Every implementation fails open: a store
// error is logged and reported as a miss, never surfaced to the caller.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Fixed keys for the cached list endpoints.
const (
	KeyDoctorsAll     = "doctors:all"
	KeyDepartmentsAll = "departments:all"
)

// Cache is a TTL key/value store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	Close() error
}

// Noop is the cache used when no store is reachable. Every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool)          { return nil, false }
func (Noop) Set(context.Context, string, []byte, time.Duration) {}
func (Noop) Delete(context.Context, ...string)                  {}
func (Noop) Close() error                                       { return nil }

// GetOrLoad returns the cached JSON value under key, or calls load, caches
// its result for ttl and returns it. Decode and encode failures fall
// through to load.
func GetOrLoad[T any](ctx context.Context, c Cache, logger zerolog.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, ok := c.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		c.Delete(ctx, key)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return v, nil
	}
	c.Set(ctx, key, raw, ttl)
	return v, nil
}
