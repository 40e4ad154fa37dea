// Package api implements the read-only diagnostics HTTP API: /healthz,
// /status, /events?since=<id>. It never mutates pipeline state and is
// disabled by default (api.enabled = false). There is no inbound mutation
// endpoint, so the surface carries no authentication.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dougbenjamin/pilot3/internal/events"
	"github.com/dougbenjamin/pilot3/internal/log"
	"github.com/dougbenjamin/pilot3/internal/queues"
)

// QueueDepther reports queue depths; satisfied by *queues.Bundle.
type QueueDepther interface {
	Depths() map[string]int
}

// CommmgrDepther reports the communication manager's per-stage backlog;
// satisfied by *commmgr.Manager. Declared as a narrow interface here
// (rather than importing internal/commmgr directly) to keep this package's
// dependency surface limited to what /status actually needs.
type CommmgrDepther interface {
	QueueDepths() map[string]int
}

// Server is the diagnostics HTTP server.
type Server struct {
	listen    string
	queues    QueueDepther
	commmgr   CommmgrDepther
	events    *events.Hub
	logger    *slog.Logger
	startedAt time.Time
	server    *http.Server

	shuttingDown atomic.Bool
}

// New constructs a Server. queues and commmgr may be nil in a deployment
// that runs only a subset of components; their absence degrades /status
// gracefully rather than panicking.
func New(listen string, qs QueueDepther, comm CommmgrDepther, hub *events.Hub) *Server {
	return &Server{
		listen:    listen,
		queues:    qs,
		commmgr:   comm,
		events:    hub,
		logger:    log.WithComponent("api"),
		startedAt: time.Now(),
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully with a 5-second deadline.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("diagnostics API starting", "listen", s.listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.shuttingDown.Store(true)
		s.logger.Info("diagnostics API shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Get("/events", s.handleEvents)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// handleHealthz reports 200 unless the server is mid-shutdown.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown.Load() {
		writeJSON(w, http.StatusServiceUnavailable, HealthzResponse{Status: "shutting_down"})
		return
	}
	writeJSON(w, http.StatusOK, HealthzResponse{Status: "ok"})
}

// handleStatus reports queue depths, terminal job counts, and the
// communication manager's per-stage backlog.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		QueueDepths:    map[string]int{},
		CommmgrBacklog: map[string]int{},
	}

	if s.queues != nil {
		resp.QueueDepths = s.queues.Depths()
		resp.FinishedJobs = resp.QueueDepths["finished_jobs"]
		resp.FailedJobs = resp.QueueDepths["failed_jobs"]
	}
	if s.commmgr != nil {
		resp.CommmgrBacklog = s.commmgr.QueueDepths()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleEvents returns a snapshot of the event hub since the given event ID.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, []events.Event{})
		return
	}

	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "since must be an integer"})
			return
		}
		since = parsed
	}

	writeJSON(w, http.StatusOK, s.events.SnapshotSince(since))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var _ QueueDepther = (*queues.Bundle)(nil)
