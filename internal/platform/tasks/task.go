// Package tasks runs named background jobs on a worker pool. Each enqueued
// task is tracked in a result backend through the states PENDING, STARTED,
// SUCCESS and FAILURE so that callers can poll it by id.
package tasks

import (
	"encoding/json"
	"errors"
	"time"
)

type State string

const (
	StatePending State = "PENDING"
	StateStarted State = "STARTED"
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// Message is the human-readable status shown to pollers.
func (s State) Message() string {
	switch s {
	case StatePending:
		return "Task is waiting to be processed"
	case StateStarted:
		return "Task is being processed"
	case StateSuccess:
		return "Task completed successfully"
	case StateFailure:
		return "Task failed"
	default:
		return "Unknown task state"
	}
}

// ErrNotFound is returned by a Backend for an unknown or expired id.
var ErrNotFound = errors.New("task not found")

// Result is the tracked record of one task.
type Result struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	State       State           `json:"state"`
	Owner       string          `json:"owner,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func (r *Result) clone() *Result {
	cp := *r
	return &cp
}
