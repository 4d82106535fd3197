package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/planwright/planwright/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the registered metrics on /metrics over plain HTTP. It is
// optional infrastructure: a process that never constructs one simply never
// serves metrics, and every Record* call above still works against the
// package-level registry regardless.
type Server struct {
	server *http.Server
	log    *logging.Logger
}

// NewServer builds a metrics server bound to addr (e.g. "9090", or "0" for
// an ephemeral port in tests).
func NewServer(addr string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:    ":" + addr,
			Handler: mux,
		},
		log: logger,
	}
}

// StartAsync starts serving in the background. Listen errors after a
// graceful Stop are expected and swallowed; anything else is logged.
func (s *Server) StartAsync() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("metrics server failed", "err", err)
		}
	}()
}

// Stop gracefully shuts the server down, bounded by ctx.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// StopWithTimeout is a convenience wrapper around Stop for callers that
// don't already have a context to hand.
func (s *Server) StopWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Stop(ctx)
}
