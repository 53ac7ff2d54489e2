// Package server assembles the echo server for the review dashboard.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/sage/config"
	"github.com/Ramsey-B/sage/pkg/middleware"
)

// RouteRegistrar is implemented by every route handler.
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

// Server wraps echo with the shared middleware set
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	logger ectologger.Logger
}

// New builds the server and mounts the given handlers.
func New(cfg *config.Config, logger ectologger.Logger, handlers ...RouteRegistrar) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HTTPReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HTTPWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HTTPIdleTimeoutSeconds) * time.Second

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	for _, h := range handlers {
		h.RegisterRoutes(e)
	}

	return &Server{
		echo:   e,
		cfg:    cfg,
		logger: logger,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.WithField("addr", addr).Info("starting dashboard api")
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
