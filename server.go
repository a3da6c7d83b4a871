package sublinear

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	"github.com/sockerless/sublinear/store"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const banner = "sublinear: dev-only Linear API replacement (NOT FOR PRODUCTION USE)\n"

// Server serves the GraphQL API over a store.
type Server struct {
	cfg           Config
	mux           *http.ServeMux
	logger        zerolog.Logger
	store         *store.Store
	metrics       *Metrics
	graphqlSchema graphql.Schema
}

// NewServer creates a server with all routes registered. The store must
// already be migrated.
func NewServer(cfg Config, st *store.Store, logger zerolog.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		logger:  logger,
		store:   st,
		metrics: NewMetrics(),
	}
	if err := s.initGraphQLSchema(); err != nil {
		return nil, err
	}
	s.registerRoutes()

	if cfg.RequireAuth && cfg.APIKey == "" {
		logger.Warn().Msg("auth is required but no API key is configured; all requests are accepted")
	}
	return s, nil
}

// Metrics returns the server's metrics collector.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleBanner)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /graphql", s.handleGraphQL)
	s.mux.HandleFunc("GET /graphql", s.handlePlayground)

	s.mux.HandleFunc("GET /internal/metrics", s.handleMetrics)
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(banner))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable", "service": "sublinear", "error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "sublinear"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.loggingMiddleware(s.mux), "sublinear")
}

// ListenAndServe serves until SIGINT or SIGTERM, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Msgf("sublinear listening on http://%s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Debug().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Dur("dur", time.Since(start)).
			Msg("request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeJSON marshals v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
