package tasks

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) (*miniredis.Miniredis, func() *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		return c
	}
}

func TestRedisBackend_SaveLoad(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedisClient(t)
	b := NewRedisBackend(client(), time.Hour)

	require.NoError(t, b.Save(ctx, &Result{ID: "t1", Name: "export_patient_history", State: StatePending, Owner: "p1"}))

	r, err := b.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, r.State)
	assert.Equal(t, "p1", r.Owner)
	assert.Equal(t, time.Hour, mr.TTL("task:result:t1"))
}

func TestRedisBackend_TerminalIsImmutable(t *testing.T) {
	ctx := context.Background()
	_, client := newRedisClient(t)
	b := NewRedisBackend(client(), time.Hour)

	require.NoError(t, b.Save(ctx, &Result{ID: "t1", State: StateFailure, Error: "boom"}))
	require.NoError(t, b.Save(ctx, &Result{ID: "t1", State: StateSuccess}))

	r, err := b.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StateFailure, r.State)
	assert.Equal(t, "boom", r.Error)
}

func TestRedisBackend_Missing(t *testing.T) {
	_, client := newRedisClient(t)
	b := NewRedisBackend(client(), time.Hour)

	_, err := b.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisQueue_PushPopAck(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedisClient(t)
	q := NewRedisQueue(client(), "worker-1")
	q.block = 50 * time.Millisecond

	require.NoError(t, q.Push(ctx, Message{TaskID: "t1", Name: "send_daily_reminders", Payload: json.RawMessage(`{"a":1}`)}))

	msg, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", msg.TaskID)
	assert.Equal(t, "send_daily_reminders", msg.Name)
	assert.JSONEq(t, `{"a":1}`, string(msg.Payload))
	assert.NotEmpty(t, msg.streamID)

	require.NoError(t, q.Ack(ctx, msg))

	entries, err := mr.Stream(DefaultStream)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRedisQueue_PopHonoursContext(t *testing.T) {
	_, client := newRedisClient(t)
	q := NewRedisQueue(client(), "worker-1")
	q.block = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisQueue_ReclaimsStaleEntries(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedisClient(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mr.SetTime(start)

	dead := NewRedisQueue(client(), "worker-1")
	dead.block = 20 * time.Millisecond
	require.NoError(t, dead.Push(ctx, Message{TaskID: "t1", Name: "send_daily_reminders"}))
	_, err := dead.Pop(ctx)
	require.NoError(t, err)

	live := NewRedisQueue(client(), "worker-2")
	live.block = 20 * time.Millisecond
	live.claimIdle = time.Minute

	waitCtx, cancel := context.WithTimeout(ctx, 80*time.Millisecond)
	defer cancel()
	_, err = live.Pop(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "entry is not stale yet")

	mr.SetTime(start.Add(2 * time.Minute))
	msg, err := live.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", msg.TaskID)
	require.NoError(t, live.Ack(ctx, msg))
}

func TestManager_OverRedis(t *testing.T) {
	_, client := newRedisClient(t)
	q := NewRedisQueue(client(), "worker-1")
	q.block = 20 * time.Millisecond
	m := NewManager(NewRedisBackend(client(), time.Hour), q, 1, zerolog.Nop())
	m.Register("echo", func(_ context.Context, payload json.RawMessage) (interface{}, error) {
		return json.RawMessage(payload), nil
	})
	m.Start(context.Background())
	t.Cleanup(m.Stop)

	id, err := m.Enqueue(context.Background(), "echo", "", map[string]string{"hello": "world"})
	require.NoError(t, err)

	r := waitForState(t, m, id, StateSuccess)
	assert.JSONEq(t, `{"hello":"world"}`, string(r.Result))
}
