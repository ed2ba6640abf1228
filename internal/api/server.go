// Package api serves a local HTTP control surface for the breathing engine.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/clouxart/breathe/internal/breath"
	"github.com/clouxart/breathe/internal/logging"
	"github.com/clouxart/breathe/internal/pattern"
	"github.com/clouxart/breathe/internal/prefs"
)

// Engine is the cycle engine the API controls.
type Engine interface {
	Start() error
	Stop() (breath.Summary, error)
	Pause() error
	Resume() error
	SetPattern(p pattern.Pattern) error
	Snapshot() breath.Snapshot
}

// PrefsStore is the preference store the API reads and updates.
type PrefsStore interface {
	Load(ctx context.Context) prefs.Prefs
	SetPattern(ctx context.Context, index int) error
	SetCustom(ctx context.Context, p pattern.Pattern) error
	TotalBreaths(ctx context.Context) (int, error)
	ResetBreaths(ctx context.Context) error
}

const shutdownTimeout = 5 * time.Second

// Server handles API requests.
type Server struct {
	engine Engine
	prefs  PrefsStore
	logger *logging.Logger

	mu      sync.RWMutex
	library *pattern.Library
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the debug logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		s.logger = l.Named("api")
	}
}

// NewServer creates a Server. A nil library means the presets only.
func NewServer(engine Engine, store PrefsStore, library *pattern.Library, opts ...Option) *Server {
	if library == nil {
		library = pattern.NewLibrary(nil)
	}
	s := &Server{
		engine:  engine,
		prefs:   store,
		library: library,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLibrary replaces the selectable patterns, e.g. after the pattern file
// was edited.
func (s *Server) SetLibrary(l *pattern.Library) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.library = l
	s.mu.Unlock()
}

func (s *Server) currentLibrary() *pattern.Library {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.library
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/state", s.handleState).Methods("GET")
	r.HandleFunc("/session/start", s.handleStart).Methods("POST")
	r.HandleFunc("/session/stop", s.handleStop).Methods("POST")
	r.HandleFunc("/session/pause", s.handlePause).Methods("POST")
	r.HandleFunc("/session/resume", s.handleResume).Methods("POST")
	r.HandleFunc("/pattern", s.handleSetPattern).Methods("PUT")
	r.HandleFunc("/patterns", s.handlePatterns).Methods("GET")
	r.HandleFunc("/stats", s.handleStats).Methods("GET")
	r.HandleFunc("/stats", s.handleResetStats).Methods("DELETE")
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, http.StatusNotFound, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed on %s", r.Method, r.URL.Path))
	})
	r.Use(s.logRequests)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

// Serve accepts connections on ln until ctx is done, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown api: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.logger.Infof("listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}
