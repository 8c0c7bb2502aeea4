// Package api provides the status HTTP server for wxuplink.
//
// It exposes health, per-destination delivery status, the dead-letter
// spool, and Prometheus metrics for scraping. The server follows the
// same lifecycle pattern as the other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stationside/wxuplink/internal/deadletter"
	"github.com/stationside/wxuplink/internal/infrastructure/config"
	"github.com/stationside/wxuplink/internal/infrastructure/logging"
	"github.com/stationside/wxuplink/internal/uplink"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 5 * time.Second

// Server timeouts. Status endpoints are tiny; generous values are unnecessary.
const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// Deps holds the dependencies required by the status server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Workers  []*uplink.Worker
	Spool    *deadletter.Store     // optional
	Gatherer prometheus.Gatherer   // registry served on /metrics
	Version  string
}

// Server is the status HTTP server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	workers  []*uplink.Worker
	spool    *deadletter.Store
	gatherer prometheus.Gatherer
	version  string
	server   *http.Server
}

// New creates a status server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Gatherer == nil {
		return nil, fmt.Errorf("metrics gatherer is required")
	}

	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		workers:  deps.Workers,
		spool:    deps.Spool,
		gatherer: deps.Gatherer,
		version:  deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine.
// Listener errors other than a clean close are logged, not returned:
// the status server failing must not take the uplink down.
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.buildRouter(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	go func() {
		s.logger.Info("status server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server failed", "error", err)
		}
	}()

	return nil
}

// Close shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
