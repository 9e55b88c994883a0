// Package server exposes the dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/balazsgrill/actiongate/internal/dispatch"
	"github.com/gin-gonic/gin"
)

// HealthChecker reports the state of an optional dependency, such as the
// MQTT announcer.
type HealthChecker interface {
	IsConnected() bool
}

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	dispatcher *dispatch.Dispatcher
	health     HealthChecker
	logger     *slog.Logger
}

type Option func(*Server)

func WithHealth(h HealthChecker) Option {
	return func(s *Server) { s.health = h }
}

func New(addr string, d *dispatch.Dispatcher, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{dispatcher: d, logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(processTime())
	r.Use(recovery())
	r.Use(allowAll())
	r.Use(executionScope(d))
	r.Use(loggingMiddleware(logger))
	s.routes(r)

	s.engine = r
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler returns the routed engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting action gateway", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping action gateway")
	return s.httpServer.Shutdown(ctx)
}
