package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrQueueClosed is returned by Push and Pop after Close.
var ErrQueueClosed = errors.New("task queue closed")

// Message is one unit of work on a Queue.
type Message struct {
	TaskID  string          `json:"task_id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// streamID is set by RedisQueue for acknowledgement.
	streamID string
}

// Queue delivers messages to workers. Pop blocks until a message arrives,
// ctx is done or the queue is closed.
type Queue interface {
	Push(ctx context.Context, msg Message) error
	Pop(ctx context.Context) (Message, error)
	Ack(ctx context.Context, msg Message) error
	Close() error
}

// ---------------------------------------------------------------------------
// MemoryQueue
// ---------------------------------------------------------------------------

type MemoryQueue struct {
	ch        chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{
		ch:   make(chan Message, size),
		done: make(chan struct{}),
	}
}

func (q *MemoryQueue) Push(ctx context.Context, msg Message) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}
	select {
	case q.ch <- msg:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Pop(ctx context.Context) (Message, error) {
	select {
	case msg := <-q.ch:
		return msg, nil
	case <-q.done:
		return Message{}, ErrQueueClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (q *MemoryQueue) Ack(context.Context, Message) error { return nil }

func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

// ---------------------------------------------------------------------------
// RedisQueue
// ---------------------------------------------------------------------------

const (
	DefaultStream = "hms:tasks"
	DefaultGroup  = "hms-workers"
)

// DefaultClaimIdle is how long a delivered entry may stay unacked before
// another consumer takes it over.
const DefaultClaimIdle = 5 * time.Minute

// RedisQueue is a Redis Stream read through a consumer group, so each
// message is handled by one worker across all processes. Entries left
// pending by a consumer that died are reclaimed after claimIdle.
type RedisQueue struct {
	client    *redis.Client
	stream    string
	group     string
	consumer  string
	block     time.Duration
	claimIdle time.Duration

	mu      sync.Mutex
	ensured bool
	closed  bool
}

func NewRedisQueue(client *redis.Client, consumer string) *RedisQueue {
	return &RedisQueue{
		client:    client,
		stream:    DefaultStream,
		group:     DefaultGroup,
		consumer:  consumer,
		block:     5 * time.Second,
		claimIdle: DefaultClaimIdle,
	}
}

// ensureGroup creates the stream and consumer group once. An existing
// group is not an error.
func (q *RedisQueue) ensureGroup(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	if q.ensured {
		return nil
	}
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	q.ensured = true
	return nil
}

func (q *RedisQueue) Push(ctx context.Context, msg Message) error {
	if err := q.ensureGroup(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode task message: %w", err)
	}
	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{"data": string(raw)},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", q.stream, err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context) (Message, error) {
	if err := q.ensureGroup(ctx); err != nil {
		return Message{}, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		if msg, ok, err := q.reclaim(ctx); ok || err != nil {
			return msg, err
		}
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumer,
			Streams:  []string{q.stream, ">"},
			Count:    1,
			Block:    q.block,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			return Message{}, fmt.Errorf("xreadgroup %s: %w", q.stream, err)
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				msg, err := decodeStreamMessage(m)
				if err != nil {
					// Unreadable entries are acked so they are not redelivered.
					_ = q.client.XAck(ctx, q.stream, q.group, m.ID).Err()
					return Message{}, err
				}
				return msg, nil
			}
		}
	}
}

// reclaim takes over one entry that has sat unacked for claimIdle.
func (q *RedisQueue) reclaim(ctx context.Context) (Message, bool, error) {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    1,
		Consumer: q.consumer,
	}).Result()
	if err != nil && err != redis.Nil {
		if ctx.Err() != nil {
			return Message{}, false, ctx.Err()
		}
		return Message{}, false, fmt.Errorf("xautoclaim %s: %w", q.stream, err)
	}
	for _, m := range msgs {
		msg, err := decodeStreamMessage(m)
		if err != nil {
			_ = q.client.XAck(ctx, q.stream, q.group, m.ID).Err()
			return Message{}, false, err
		}
		return msg, true, nil
	}
	return Message{}, false, nil
}

func decodeStreamMessage(m redis.XMessage) (Message, error) {
	data, ok := m.Values["data"].(string)
	if !ok {
		return Message{}, fmt.Errorf("stream entry %s has no data field", m.ID)
	}
	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return Message{}, fmt.Errorf("decode stream entry %s: %w", m.ID, err)
	}
	msg.streamID = m.ID
	return msg, nil
}

func (q *RedisQueue) Ack(ctx context.Context, msg Message) error {
	if msg.streamID == "" {
		return nil
	}
	if err := q.client.XAck(ctx, q.stream, q.group, msg.streamID).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", msg.streamID, err)
	}
	return nil
}

func (q *RedisQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	return q.client.Close()
}
