package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Enqueuer is the part of Manager the scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, name, owner string, payload interface{}) (string, error)
}

// Scheduler enqueues named tasks on cron schedules.
type Scheduler struct {
	cron   *gocron.Scheduler
	tasks  Enqueuer
	logger zerolog.Logger
}

func NewScheduler(tasks Enqueuer, loc *time.Location, logger zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:   gocron.NewScheduler(loc),
		tasks:  tasks,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Every enqueues the task name each time the five-field cron expression
// fires.
func (s *Scheduler) Every(expr, name string) error {
	_, err := s.cron.Cron(expr).Do(s.fire, name)
	if err != nil {
		return fmt.Errorf("schedule %s at %q: %w", name, expr, err)
	}
	s.logger.Info().Str("task", name).Str("cron", expr).Msg("task scheduled")
	return nil
}

func (s *Scheduler) fire(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	id, err := s.tasks.Enqueue(ctx, name, "", nil)
	if err != nil {
		s.logger.Error().Err(err).Str("task", name).Msg("scheduled enqueue failed")
		return
	}
	s.logger.Info().Str("task", name).Str("task_id", id).Msg("scheduled task enqueued")
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	return s.cron.Len()
}

func (s *Scheduler) Start() {
	s.cron.StartAsync()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
