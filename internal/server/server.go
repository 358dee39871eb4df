// Package server exposes the sampling pipeline over HTTP.
//
// # Routes
//
//	POST   /v1/sample      one-shot sampling, returns a run document
//	POST   /v1/nr          non-redundant sampling, returns a run document
//	POST   /v1/nr/stream   non-redundant sampling as NDJSON, one structure per line
//	GET    /v1/runs        recent runs
//	GET    /v1/runs/{id}   one stored run
//	DELETE /v1/runs/{id}   delete a stored run
//	GET    /healthz        liveness
//	GET    /version        build information
//	GET    /metrics        Prometheus metrics
//
// Request bodies are JSON-encoded pipeline.Options.
package server

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stochfold/pkg/observability"
	"github.com/matzehuels/stochfold/pkg/pipeline"
	"github.com/matzehuels/stochfold/pkg/store"
)

const (
	// maxBodyBytes bounds request bodies; alignments are the largest input.
	maxBodyBytes = 8 << 20

	// defaultListLimit is the number of runs GET /v1/runs returns.
	defaultListLimit = 20

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	metrics *Metrics
	logger  *log.Logger
	router  chi.Router
}

// New creates a server. Runs are persisted in st, which also becomes the
// runner's store. A nil metrics disables /metrics.
func New(runner *pipeline.Runner, st store.Store, metrics *Metrics, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	runner.Store = st
	s := &Server{
		runner:  runner,
		store:   st,
		metrics: metrics,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sample", s.handleSample)
		r.Post("/nr", s.handleNonRedundant)
		r.Post("/nr/stream", s.handleStream)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// observe fires the HTTP hooks with the matched route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", time.Since(start), "id", middleware.GetReqID(r.Context()))
	})
}
