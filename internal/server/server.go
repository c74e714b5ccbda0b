// Package server exposes the HTTP surface: webhook intake, manual sweep
// triggers, sweep history and task status.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/history"
	"github.com/janitarr/janitarr/internal/scheduler"
	"github.com/janitarr/janitarr/internal/sweep"
)

// Server handles HTTP requests for the Janitarr API.
type Server struct {
	echo          *echo.Echo
	logger        zerolog.Logger
	sweeper       *sweep.Sweeper
	history       *history.Service
	scheduler     *scheduler.Scheduler
	defaultDryRun bool
}

// NewServer creates a new API server instance.
func NewServer(sweeper *sweep.Sweeper, historyService *history.Service, sched *scheduler.Scheduler, defaultDryRun bool, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:          e,
		logger:        logger,
		sweeper:       sweeper,
		history:       historyService,
		scheduler:     sched,
		defaultDryRun: defaultDryRun,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/ping", s.ping)

	api := s.echo.Group("/api/v1")
	api.POST("/webhook", s.handleWebhook)
	api.POST("/sweep", s.triggerSweep)
	api.GET("/sweeps", s.listSweeps)
	api.GET("/sweeps/:id", s.getSweep)
	api.GET("/tasks", s.listTasks)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
