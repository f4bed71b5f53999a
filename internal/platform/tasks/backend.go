package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Backend stores task results. Save on an id whose stored state is already
// terminal is a no-op.
type Backend interface {
	Save(ctx context.Context, r *Result) error
	Load(ctx context.Context, id string) (*Result, error)
	Close() error
}

// ---------------------------------------------------------------------------
// MemoryBackend
// ---------------------------------------------------------------------------

type memoryEntry struct {
	result    *Result
	expiresAt time.Time
}

// MemoryBackend keeps results in process. Entries expire ttl after their
// last save.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryBackend(ttl time.Duration) *MemoryBackend {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryBackend{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (b *MemoryBackend) Save(_ context.Context, r *Result) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.prune(now)
	if cur, ok := b.entries[r.ID]; ok && cur.result.State.Terminal() {
		return nil
	}
	b.entries[r.ID] = &memoryEntry{result: r.clone(), expiresAt: now.Add(b.ttl)}
	return nil
}

func (b *MemoryBackend) Load(_ context.Context, id string) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[id]
	if !ok || b.now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e.result.clone(), nil
}

// prune drops expired entries; the caller holds b.mu.
func (b *MemoryBackend) prune(now time.Time) {
	for id, e := range b.entries {
		if now.After(e.expiresAt) {
			delete(b.entries, id)
		}
	}
}

func (b *MemoryBackend) Close() error { return nil }

// ---------------------------------------------------------------------------
// RedisBackend
// ---------------------------------------------------------------------------

const resultKeyPrefix = "task:result:"

// RedisBackend stores each result as JSON under task:result:<id>.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisBackend{client: client, ttl: ttl}
}

func (b *RedisBackend) Save(ctx context.Context, r *Result) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode task result: %w", err)
	}
	key := resultKeyPrefix + r.ID

	save := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var prev Result
			if json.Unmarshal(cur, &prev) == nil && prev.State.Terminal() {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, raw, b.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < 3; attempt++ {
		err = b.client.Watch(ctx, save, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("save task result %s: %w", r.ID, err)
	}
	return nil
}

func (b *RedisBackend) Load(ctx context.Context, id string) (*Result, error) {
	raw, err := b.client.Get(ctx, resultKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task result %s: %w", id, err)
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode task result %s: %w", id, err)
	}
	return &r, nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
