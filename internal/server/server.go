package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ptt/internal/repositories"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, recovery, request ids, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for resource handlers in the tracker API.
// Implementations own the routes below their pattern (videos, taxonomy, creators).
type Handler interface {
	Pattern() string    // Pattern returns the path the handler is mounted at
	Routes() chi.Router // Routes returns a sub-router with the handler's endpoints
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Server is the reference REST API backed by SQLite.
type Server struct {
	addr    string
	logger  *log.Logger
	handler http.Handler
}

// New builds a server for db listening on addr. API routes live under /api.
func New(addr string, db *sql.DB, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	notFound := func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	}

	api := NewChiRouter()
	api.Use(middleware.RequestID, middleware.Recoverer, RequestLogger(logger))
	api.mux.NotFound(notFound)
	api.Handler(NewVideoHandler(repositories.NewVideoRepository(db), repositories.NewCreatorRepository(db), repositories.NewTaxonomyRepository(db, repositories.KindCategory), logger))
	api.Handler(NewTaxonomyHandler("/categories", repositories.NewTaxonomyRepository(db, repositories.KindCategory), logger))
	api.Handler(NewTaxonomyHandler("/tags", repositories.NewTaxonomyRepository(db, repositories.KindTag), logger))
	api.Handler(NewCreatorHandler(repositories.NewCreatorRepository(db), logger))

	root := NewChiRouter()
	root.Handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
	}))
	root.mux.Mount("/api", api)
	root.mux.NotFound(notFound)

	return &Server{addr: addr, logger: logger, handler: root}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", s.addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}
