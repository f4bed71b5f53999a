package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/config"
	"github.com/syntura/hms/internal/domain/admin"
	"github.com/syntura/hms/internal/domain/clinical"
	"github.com/syntura/hms/internal/domain/identity"
	"github.com/syntura/hms/internal/domain/jobs"
	"github.com/syntura/hms/internal/domain/scheduling"
	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/cache"
	"github.com/syntura/hms/internal/platform/db"
	"github.com/syntura/hms/internal/platform/notification"
	"github.com/syntura/hms/internal/platform/tasks"
)

// app holds the process-wide dependencies shared by serve, worker and seed.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	pool        *pgxpool.Pool
	cache       cache.Cache
	tokens      *auth.TokenIssuer
	revocations *auth.TokenRevocationStore
	manager     *tasks.Manager
	backend     tasks.Backend
	queue       tasks.Queue

	identity   *identity.Service
	scheduling *scheduling.Service
	clinical   *clinical.Service
	admin      *admin.Service
	runner     *jobs.Runner
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info().Msg("connected to database")

	a := &app{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		cache:       cache.Connect(ctx, cfg.RedisURL, logger),
		tokens:      auth.NewTokenIssuer(cfg.JWTSecretKey, cfg.JWTAccessTokenExpires, cfg.JWTRefreshTokenExpires),
		revocations: auth.NewTokenRevocationStore(),
	}

	tx := db.NewTransactor(pool)
	a.identity = identity.NewService(tx,
		identity.NewUserRepoPG(pool), identity.NewDoctorRepoPG(pool), identity.NewPatientRepoPG(pool),
		a.tokens, logger,
		identity.WithCache(a.cache, cfg.CacheTTL()),
		identity.WithRevocations(a.revocations),
	)
	a.scheduling = scheduling.NewService(tx, scheduling.NewAppointmentRepoPG(pool), a.identity, logger)
	a.clinical = clinical.NewService(tx, clinical.NewTreatmentRepoPG(pool), a.identity, logger)
	a.admin = admin.NewService(admin.NewDepartmentRepoPG(pool), admin.NewStatsRepoPG(pool), a.cache, cfg.CacheTTL(), logger)

	a.backend, a.queue = taskStores(ctx, cfg, logger)
	a.manager = tasks.NewManager(a.backend, a.queue, cfg.TaskWorkers, logger)
	a.runner = jobs.NewRunner(a.clinical, jobs.NewSweepRepoPG(pool), newDispatcher(cfg, logger), logger)
	a.runner.Register(a.manager)

	return a, nil
}

// taskStores puts the broker and the result backend on Redis only when both
// are reachable. Otherwise both fall back to process memory, so a task is
// never queued in one place and reported in another.
func taskStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (tasks.Backend, tasks.Queue) {
	results := dialRedis(ctx, cfg.TaskResultBackend, "result backend", logger)
	broker := dialRedis(ctx, cfg.TaskBrokerURL, "task broker", logger)
	if results != nil && broker != nil {
		return tasks.NewRedisBackend(results, cfg.TaskResultTTL), tasks.NewRedisQueue(broker, consumerName())
	}

	for _, c := range []*redis.Client{results, broker} {
		if c != nil {
			_ = c.Close()
		}
	}
	if results != nil || broker != nil {
		logger.Warn().Msg("task broker and result backend must both be reachable, using memory for both")
	}
	return tasks.NewMemoryBackend(cfg.TaskResultTTL), tasks.NewMemoryQueue(256)
}

func dialRedis(ctx context.Context, url, role string, logger zerolog.Logger) *redis.Client {
	if url == "" {
		logger.Info().Str("role", role).Msg("redis not configured, using memory")
		return nil
	}
	client, err := cache.NewClient(url)
	if err != nil {
		logger.Warn().Err(err).Str("role", role).Msg("bad redis url, using memory")
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("role", role).Msg("redis unreachable, using memory")
		_ = client.Close()
		return nil
	}
	return client
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "hms"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// newDispatcher always logs notifications; email, SMS and the chat webhook
// are added when their settings are present.
func newDispatcher(cfg *config.Config, logger zerolog.Logger) *notification.Dispatcher {
	var opts []notification.Option
	if cfg.SMTPHost != "" {
		opts = append(opts, notification.WithEmail(notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})))
	}
	if cfg.TwilioAccountSID != "" {
		opts = append(opts, notification.WithSMS(notification.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)))
	}
	if cfg.NotifyWebhookURL != "" {
		opts = append(opts, notification.WithChat(notification.NewWebhookSender(cfg.NotifyWebhookURL)))
	}
	d := notification.NewDispatcher(notification.NewTemplateEngine(), logger, opts...)

	channels := make([]string, 0, 4)
	for _, ch := range d.Channels() {
		channels = append(channels, string(ch))
	}
	logger.Info().Strs("channels", channels).Msg("notification channels configured")
	return d
}

// newScheduler registers the periodic sweeps. It returns nil when the
// scheduler is disabled.
func (a *app) newScheduler() (*tasks.Scheduler, error) {
	if !a.cfg.SchedulerEnabled {
		a.logger.Info().Msg("periodic scheduler disabled")
		return nil, nil
	}
	s := tasks.NewScheduler(a.manager, time.Local, a.logger)
	if err := s.Every(a.cfg.ReminderCron, jobs.TaskDailyReminders); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	if err := s.Every(a.cfg.ReportCron, jobs.TaskMonthlyReports); err != nil {
		return nil, fmt.Errorf("schedule reports: %w", err)
	}
	return s, nil
}

func (a *app) close() {
	a.revocations.Close()
	if err := a.queue.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close task queue")
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close task backend")
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close cache")
	}
	a.pool.Close()
}
