package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPort is the metrics port used when none is configured.
const DefaultPort = 9090

// shutdownGrace bounds the drain of in-flight scrapes on shutdown.
const shutdownGrace = 5 * time.Second

// Server exposes the registry over HTTP at GET /metrics.
//
// Long-running CLI commands (large cat/put transfers) start it in the
// background so a scraper can follow the transfer.
type Server struct {
	server *http.Server
	port   int
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Port to listen on for HTTP requests.
	// Default: 9090
	Port int
}

// NewServer creates a metrics HTTP server in a stopped state. Call Start to
// begin serving.
func NewServer(config ServerConfig) *Server {
	port := config.Port
	if port <= 0 {
		port = DefaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(port)),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		port: port,
	}
}

// Handler returns the /metrics handler. With metrics disabled it answers
// 503 Service Unavailable.
func Handler() http.Handler {
	registry := GetRegistry()
	if registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics collection is disabled", http.StatusServiceUnavailable)
		})
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Start binds the port and serves until ctx is cancelled.
//
// A bind failure is returned immediately. Cancelling ctx drains in-flight
// scrapes for up to five seconds.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the port cannot be bound or serving fails
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server: listen on port %d: %w", s.port, err)
	}
	logger.Debug("metrics server listening on %s", ln.Addr())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		logger.Debug("metrics server stopped")
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	return s.port
}
