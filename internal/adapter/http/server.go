package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	msgTileFailure   = "Failed to generate map tiles. Please try again."
	msgRenderFailure = "Failed to render map. Please try again."
	msgInternal      = "Internal server error"
	msgRateLimited   = "Too many requests. Please wait before trying again."
)

// Analyzer runs one vegetation-loss analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
	CheckReadiness(ctx context.Context) error
}

// Renderer writes the HTML pages.
type Renderer interface {
	RenderMap(w io.Writer, res domain.AnalysisResult) error
	RenderDashboard(w io.Writer, currentYear int) error
}

// Options configures the HTTP server.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitRequests  int // per client IP and window on /getData; 0 disables
	RateLimitWindow    time.Duration
	// WriteTimeout must exceed the analytics timeout or slow analyses are cut off.
	WriteTimeout time.Duration
}

// Server exposes the analysis endpoint, the dashboard, and the health,
// readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	renderer   Renderer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /getData, /health, /healthz, /readyz,
// /metrics, and / routes.
func NewServer(opts Options, analyzer Analyzer, renderer Renderer, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 90 * time.Second
	}

	s := &Server{
		analyzer: analyzer,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.requestID(s.accessLog(corsMiddleware(opts.CORSAllowedOrigins)(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	limit := rateLimit(opts.RateLimitRequests, opts.RateLimitWindow, http.HandlerFunc(s.handleRateLimited))

	mux.Handle("GET /getData", limit(http.HandlerFunc(s.handleGetData)))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(analyzer))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", s.handleDashboard)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := domain.ParseAnalysisRequest(r.URL.Query(), domain.CurrentYear())
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	res, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	// Render fully before writing so a template failure can still become a JSON 500.
	var buf bytes.Buffer
	if err := s.renderer.RenderMap(&buf, res); err != nil {
		s.logger.Error("render map failed", "request_id", observability.RequestID(ctx), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgRenderFailure})
		return
	}
	writeHTML(w, buf.Bytes())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.renderer.RenderDashboard(&buf, domain.CurrentYear()); err != nil {
		s.logger.Error("render dashboard failed", "request_id", observability.RequestID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgInternal})
		return
	}
	writeHTML(w, buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: msgRateLimited})
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps an analysis error to its status and message and logs it.
// Client errors carry their own message; upstream details stay in the log.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := s.logger.With("request_id", observability.RequestID(ctx))

	switch {
	case domain.IsClientError(err):
		logger.Info("request rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		// Checked before ErrUpstream: the analytics client wraps transport errors,
		// a client disconnect included.
		logger.Info("request canceled by client")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgTileFailure})
	case errors.Is(err, domain.ErrUpstream):
		logger.Error("analytics service failure", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgTileFailure})
	default:
		logger.Error("error processing request", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: msgInternal})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeHTML(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page) //nolint:errcheck // client may have gone away
}
