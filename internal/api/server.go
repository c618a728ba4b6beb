package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"marketbeat/internal/market/heartbeat"
	"marketbeat/internal/market/query"

	"go.uber.org/zap"
)

// LatestReader serves the read contract.
type LatestReader interface {
	Latest() query.Result
}

// StatusSource reports the heartbeat status for /healthz.
type StatusSource interface {
	Status() heartbeat.Status
}

// Pinger is an optional backing store checked by /healthz.
type Pinger func(ctx context.Context) error

type Response struct {
	Ok    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type Health struct {
	Status     string            `json:"status"`
	Heartbeat  heartbeat.Status  `json:"heartbeat"`
	Components map[string]string `json:"components,omitempty"`
}

// Server exposes the latest snapshot, health, and the websocket stream over HTTP.
type Server struct {
	srv     *http.Server
	reader  LatestReader
	status  StatusSource
	stream  http.Handler
	pingers map[string]Pinger
	logger  *zap.Logger
}

type Option func(*Server)

// WithStream mounts h at /ws/market.
func WithStream(h http.Handler) Option {
	return func(s *Server) { s.stream = h }
}

// WithPinger adds a named dependency to /healthz.
func WithPinger(name string, p Pinger) Option {
	return func(s *Server) { s.pingers[name] = p }
}

func NewServer(addr string, reader LatestReader, status StatusSource, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		reader:  reader,
		status:  status,
		pingers: make(map[string]Pinger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/snapshot/latest", s.handleLatest)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.stream != nil {
		mux.Handle("/ws/market", s.stream)
	}
	return mux
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSON(w, http.StatusMethodNotAllowed, Response{Ok: false, Error: "method not allowed"})
		return
	}
	s.writeJSON(w, http.StatusOK, Response{Ok: true, Data: s.reader.Latest()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := Health{Status: "ok"}
	if s.status != nil {
		health.Heartbeat = s.status.Status()
		if !health.Heartbeat.Running {
			health.Status = "degraded"
		}
	}

	if len(s.pingers) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		health.Components = make(map[string]string, len(s.pingers))
		for name, ping := range s.pingers {
			if err := ping(ctx); err != nil {
				health.Components[name] = "unhealthy: " + err.Error()
				health.Status = "degraded"
				continue
			}
			health.Components[name] = "healthy"
		}
	}

	s.writeJSON(w, http.StatusOK, health)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}
