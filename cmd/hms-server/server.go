package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/syntura/hms/internal/config"
	"github.com/syntura/hms/internal/domain/admin"
	"github.com/syntura/hms/internal/domain/clinical"
	"github.com/syntura/hms/internal/domain/identity"
	"github.com/syntura/hms/internal/domain/jobs"
	"github.com/syntura/hms/internal/domain/scheduling"
	"github.com/syntura/hms/internal/platform/auth"
	"github.com/syntura/hms/internal/platform/db"
	"github.com/syntura/hms/internal/platform/middleware"
)

const shutdownTimeout = 10 * time.Second

// newEcho builds the server with the global middleware chain and returns the
// /api group guarded by the access token gate.
func newEcho(cfg *config.Config, logger zerolog.Logger, tokens *auth.TokenIssuer, revocations *auth.TokenRevocationStore) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Validator = middleware.NewValidator()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	e.Use(middleware.RateLimit(rl))
	e.Use(middleware.BodyLimit("2M"))

	api := e.Group("/api", auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      tokens,
		Revocations: revocations,
		Skipper:     auth.AuthSkipper,
	}))
	api.GET("/health", db.LivenessHandler())
	return e, api
}

func (a *app) routes(api *echo.Group) {
	api.GET("/health/db", db.HealthHandler(a.pool))

	refresh := auth.JWTMiddleware(auth.JWTConfig{
		Issuer:      a.tokens,
		TokenType:   auth.TokenRefresh,
		Revocations: a.revocations,
	})
	identity.NewHandler(a.identity, refresh).RegisterRoutes(api)
	scheduling.NewHandler(a.scheduling).RegisterRoutes(api)
	clinical.NewHandler(a.clinical).RegisterRoutes(api)
	admin.NewHandler(a.admin).RegisterRoutes(api)
	jobs.NewHandler(a.manager, a.identity).RegisterRoutes(api)
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	scheduler, err := a.newScheduler()
	if err != nil {
		return err
	}

	e, api := newEcho(cfg, logger, a.tokens, a.revocations)
	a.routes(api)

	a.manager.Start(ctx)
	if scheduler != nil {
		scheduler.Start()
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := waitForSignal()
	logger.Info().Str("signal", sig.String()).Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if scheduler != nil {
		scheduler.Stop()
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	a.manager.Stop()
	logger.Info().Msg("server stopped")
	return nil
}

func runWorker() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg).With().Str("process", "worker").Logger()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	scheduler, err := a.newScheduler()
	if err != nil {
		return err
	}

	a.manager.Start(ctx)
	if scheduler != nil {
		scheduler.Start()
		logger.Info().Int("jobs", scheduler.Len()).Msg("scheduler started")
	}

	sig := waitForSignal()
	logger.Info().Str("signal", sig.String()).Msg("shutting down worker")
	if scheduler != nil {
		scheduler.Stop()
	}
	a.manager.Stop()
	return nil
}
