// Package server exposes the recommendation service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hirestack/assessrec/catalog"
	"github.com/hirestack/assessrec/evaluation"
	"github.com/hirestack/assessrec/filter"
	"github.com/hirestack/assessrec/pipeline"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Recommender is the pipeline capability the handlers depend on.
type Recommender interface {
	Recommend(ctx context.Context, query string, topK int, f filter.Filters) (*pipeline.Result, error)
}

// Server wires the HTTP surface over the pipeline, the catalog store
// and the evaluation harness.
type Server struct {
	rec     Recommender
	store   catalog.Store
	harness *evaluation.Harness
	eval    *evaluation.FileStore
	logger  *zap.Logger

	defaultTopK int
	origins     []string
}

// Config parameterizes the HTTP surface.
type Config struct {
	DefaultTopK int
	CORSOrigins []string
}

// New creates a Server.
func New(rec Recommender, store catalog.Store, harness *evaluation.Harness, eval *evaluation.FileStore, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Server{
		rec:         rec,
		store:       store,
		harness:     harness,
		eval:        eval,
		logger:      logger,
		defaultTopK: cfg.DefaultTopK,
		origins:     cfg.CORSOrigins,
	}
}

var (
	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assessrec_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assessrec_http_request_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Router assembles the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Post("/recommend", s.handleRecommendCompact)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealthVersion)
		r.Post("/recommendations", s.handleRecommendations)

		r.Get("/assessments", s.handleListAssessments)
		r.Post("/assessments", s.handleCreateAssessment)
		r.Get("/assessments/{id}", s.handleGetAssessment)
		r.Put("/assessments/{id}", s.handleUpdateAssessment)
		r.Delete("/assessments/{id}", s.handleDeleteAssessment)

		r.Route("/evaluation", func(r chi.Router) {
			r.Get("/ground-truth", s.handleGetGroundTruth)
			r.Post("/ground-truth", s.handlePutGroundTruth)
			r.Post("/run", s.handleEvaluationRun)
			r.Post("/query", s.handleEvaluationQuery)
			r.Get("/history", s.handleEvaluationHistory)
		})
	})
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		requestCount.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		requestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.logger.Debug("http request",
			zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()), zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleHealthVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": Version})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps error kinds onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, evaluation.ErrUnknownQuery):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}
