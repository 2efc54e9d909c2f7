// Package core is the HTTP chassis of the Blue Waters API. It builds the chi
// router, applies the cross-cutting middleware (panic recovery, request ids,
// logging, CORS, metrics, compression) and renders responses and errors in a
// single format. Domain handlers plug in through RouteRegistrars.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bluewaters/internal/config"
)

// Server holds the chassis dependencies. Fields may be set between NewServer
// and MountRoutes.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// MetricsHandler, when set, is served at GET /metrics.
	MetricsHandler http.Handler
	HealthProbes   []HealthProbe
	// RouteRegistrars mount domain handlers at the router root.
	RouteRegistrars []func(chi.Router)

	router *chi.Mux
}

// NewServer validates the required dependencies and prepares an empty router.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the root handler for http.Server and the Lambda adapter.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the chi mux for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown flushes buffered telemetry if the collector supports it.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	if flusher, ok := s.Metrics.(interface{ Flush(context.Context) error }); ok {
		if err := flusher.Flush(ctx); err != nil {
			s.Logger.Error("error flushing metrics", "error", err)
			return fmt.Errorf("flushing metrics: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
