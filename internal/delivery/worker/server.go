// Package worker provides the session maintenance server: it consumes auth
// event pushes and periodically deletes expired sessions.
package worker

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"purse/config"
	"purse/internal/delivery"
	"purse/internal/delivery/middleware"
	"purse/internal/delivery/worker/handler"
	"purse/internal/domain/lifecycle"
	"purse/internal/usecase"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const defaultCleanupInterval = time.Hour

type workerServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
	auth   usecase.AuthUsecase
}

// ServerParams holds dependencies for the worker server
type ServerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	Auth        usecase.AuthUsecase
	PushHandler *handler.PushHandler
}

// NewServer creates a new worker HTTP server
func NewServer(params ServerParams) (delivery.Delivery, error) {
	e := echo.New()
	e.HideBanner = true

	// Set up middleware in correct order
	// 1. Recover middleware first (to catch panics early)
	e.Use(echomiddleware.Recover())

	// 2. Request ID middleware (must be before logger to include in logs)
	requestIDMiddleware := middleware.NewRequestIDMiddleware(params.Logger)
	e.Use(requestIDMiddleware.Process)

	// 3. Logger middleware
	loggerMiddleware := middleware.NewLoggerMiddleware(params.Logger, params.Cfg)
	e.Use(loggerMiddleware.Handle)

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// Pub/Sub push endpoint for auth events
	e.POST("/push/auth-events", params.PushHandler.HandlePush)

	srv := &workerServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: e,
		auth:   params.Auth,
	}

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())

	params.Lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go srv.runCleanupLoop(cleanupCtx)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelCleanup()

			return srv.stop(ctx)
		},
	})

	return srv, nil
}

// Serve starts the worker HTTP server
func (s *workerServer) Serve(ctx context.Context) error {
	port := s.cfg.HTTP.Port
	if s.cfg.Worker != nil && s.cfg.Worker.Port > 0 {
		port = s.cfg.Worker.Port
	}

	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
	s.logger.Info("Starting Worker HTTP server", slog.String("hostPort", hostPort))
	if err := s.server.Start(hostPort); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// runCleanupLoop deletes expired sessions on a fixed interval until the
// context is cancelled. Failures are logged and retried on the next tick.
func (s *workerServer) runCleanupLoop(ctx context.Context) {
	interval := defaultCleanupInterval
	if s.cfg.Worker != nil && s.cfg.Worker.CleanupInterval > 0 {
		interval = s.cfg.Worker.CleanupInterval
	}

	s.logger.Info("Starting session cleanup loop", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping session cleanup loop")

			return
		case <-ticker.C:
			count, err := s.auth.CleanupExpiredSessions(ctx)
			if err != nil {
				s.logger.Error("Session cleanup failed", slog.Any("error", err))

				continue
			}
			if count > 0 {
				s.logger.Info("Session cleanup pass complete", slog.Int64("deleted", count))
			}
		}
	}
}

// stop gracefully shuts down the worker server
func (s *workerServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down Worker HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
