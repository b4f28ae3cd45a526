package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port int
	Bind string
}

const readHeaderTimeout = 5 * time.Second

// Server exposes /healthz, /readyz and, once a handler is set, /metrics.
type Server struct {
	mu       sync.RWMutex
	health   *HealthManager
	config   ServerConfig
	router   chi.Router
	server   *http.Server
	listener net.Listener
}

// NewServer creates a Server backed by health.
func NewServer(health *HealthManager, config ServerConfig) *Server {
	s := &Server{health: health, config: config}
	s.router = s.routes(nil)
	return s
}

func (s *Server) routes(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	return r
}

// SetMetricsHandler mounts handler at /metrics. Call before Listen.
func (s *Server) SetMetricsHandler(handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router = s.routes(handler)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}

// ListenAddr returns the bound address once Listen has succeeded, and the
// configured address otherwise. With port 0 this carries the chosen port.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.Addr()
}

// LivezResponse is the /healthz response body.
type LivezResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LivezResponse{Status: "alive"})
}

// handleReadyz answers 503 only when the status is not ready. Degraded and
// stale components still answer 200.
func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	status := s.health.Status()
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Listen binds the configured address so that bind failures surface
// before the daemon reports readiness. Routes are fixed from here on.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s; %w", s.Addr(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return ln, nil
}

// Serve handles requests on ln until Shutdown is called. Listen must have
// been called first.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	srv := s.server
	if srv == nil {
		s.mu.Unlock()
		return errors.New("http server not listening")
	}
	srv.BaseContext = func(net.Listener) context.Context { return ctx }
	s.mu.Unlock()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error; %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server. It is a no-op before Listen.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server; %w", err)
	}
	return nil
}
