package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HandlerFunc runs one task. Its return value is stored as the JSON result.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Manager enqueues tasks and runs them on a pool of workers.
type Manager struct {
	backend Backend
	queue   Queue
	workers int
	logger  zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(backend Backend, queue Queue, workers int, logger zerolog.Logger) *Manager {
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		backend:  backend,
		queue:    queue,
		workers:  workers,
		logger:   logger.With().Str("component", "tasks").Logger(),
		now:      time.Now,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register binds a handler to a task name, replacing any earlier one.
func (m *Manager) Register(name string, h HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[name] = h
}

func (m *Manager) handler(name string) (HandlerFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[name]
	return h, ok
}

// Enqueue records a PENDING result and hands the task to the queue. owner
// scopes who may poll the task; it is empty for system tasks.
func (m *Manager) Enqueue(ctx context.Context, name, owner string, payload interface{}) (string, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("encode %s payload: %w", name, err)
		}
		raw = b
	}

	r := &Result{
		ID:         uuid.NewString(),
		Name:       name,
		State:      StatePending,
		Owner:      owner,
		Payload:    raw,
		EnqueuedAt: m.now().UTC(),
	}
	if err := m.backend.Save(ctx, r); err != nil {
		return "", err
	}
	if err := m.queue.Push(ctx, Message{TaskID: r.ID, Name: name, Payload: raw}); err != nil {
		m.fail(ctx, r, fmt.Errorf("enqueue: %w", err))
		return "", err
	}

	m.logger.Debug().Str("task_id", r.ID).Str("task", name).Msg("task enqueued")
	return r.ID, nil
}

// Status returns the stored result for id, or ErrNotFound.
func (m *Manager) Status(ctx context.Context, id string) (*Result, error) {
	return m.backend.Load(ctx, id)
}

// Start launches the workers. They run until ctx is cancelled or Stop is
// called.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go m.work(ctx, i)
	}
	m.logger.Info().Int("workers", m.workers).Msg("task workers started")
}

// Stop cancels the workers and waits for in-flight tasks to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info().Msg("task workers stopped")
}

func (m *Manager) work(ctx context.Context, n int) {
	defer m.wg.Done()
	log := m.logger.With().Int("worker", n).Logger()

	backoff := time.Second
	for {
		msg, err := m.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrQueueClosed) {
				return
			}
			log.Error().Err(err).Dur("backoff", backoff).Msg("pop task failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		// In-flight tasks finish even when shutdown begins.
		m.process(context.WithoutCancel(ctx), msg)
		if err := m.queue.Ack(context.WithoutCancel(ctx), msg); err != nil {
			log.Warn().Err(err).Str("task_id", msg.TaskID).Msg("ack task failed")
		}
	}
}

// process runs one message through STARTED to a terminal state.
func (m *Manager) process(ctx context.Context, msg Message) {
	r, err := m.backend.Load(ctx, msg.TaskID)
	if errors.Is(err, ErrNotFound) {
		r = &Result{ID: msg.TaskID, Name: msg.Name, Payload: msg.Payload, EnqueuedAt: m.now().UTC()}
	} else if err != nil {
		m.logger.Error().Err(err).Str("task_id", msg.TaskID).Msg("load task failed")
		return
	}
	if r.State.Terminal() {
		return
	}

	started := m.now().UTC()
	r.State = StateStarted
	r.StartedAt = &started
	if err := m.backend.Save(ctx, r); err != nil {
		m.logger.Error().Err(err).Str("task_id", r.ID).Msg("mark task started failed")
	}

	h, ok := m.handler(msg.Name)
	if !ok {
		m.fail(ctx, r, fmt.Errorf("unknown task %s", msg.Name))
		return
	}

	out, err := m.invoke(ctx, h, msg)
	if err != nil {
		m.fail(ctx, r, err)
		return
	}

	raw, err := json.Marshal(out)
	if err != nil {
		m.fail(ctx, r, fmt.Errorf("encode result: %w", err))
		return
	}

	done := m.now().UTC()
	r.State = StateSuccess
	r.Result = raw
	r.CompletedAt = &done
	if err := m.backend.Save(ctx, r); err != nil {
		m.logger.Error().Err(err).Str("task_id", r.ID).Msg("save task result failed")
		return
	}
	m.logger.Info().Str("task_id", r.ID).Str("task", r.Name).
		Dur("took", done.Sub(started)).Msg("task succeeded")
}

func (m *Manager) invoke(ctx context.Context, h HandlerFunc, msg Message) (out interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			m.logger.Error().
				Str("task_id", msg.TaskID).
				Str("panic", fmt.Sprintf("%v", p)).
				Str("stack", string(debug.Stack())).
				Msg("task panicked")
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h(ctx, msg.Payload)
}

func (m *Manager) fail(ctx context.Context, r *Result, cause error) {
	done := m.now().UTC()
	r.State = StateFailure
	r.Error = cause.Error()
	r.CompletedAt = &done
	if err := m.backend.Save(ctx, r); err != nil {
		m.logger.Error().Err(err).Str("task_id", r.ID).Msg("save task failure failed")
	}
	m.logger.Warn().Err(cause).Str("task_id", r.ID).Str("task", r.Name).Msg("task failed")
}
