package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ImpactService is the simulator surface the API exposes.
type ImpactService interface {
	Strike(ctx context.Context, req domain.StrikeRequest) (domain.ImpactEvent, error)
	Narrate(ctx context.Context, req domain.NarrateRequest) (domain.Narrative, error)
	Latest() (domain.ImpactEvent, bool)
	Config() domain.MeteorConfig
	UpdateConfig(cfg domain.MeteorConfig) (domain.MeteorConfig, error)
	Materials() map[domain.Material]float64
}

// Server exposes the impact API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/v1 routes, /healthz,
// /readyz, and /metrics.
func NewServer(addr string, svc ImpactService, ready sharedobs.ReadinessChecker, logger *slog.Logger, narrativeTimeout time.Duration) *Server {
	mux := http.NewServeMux()

	h := &handlers{svc: svc, logger: logger}
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/materials", h.materials)
	mux.HandleFunc("GET /api/v1/config", h.getConfig)
	mux.HandleFunc("PUT /api/v1/config", h.putConfig)
	mux.HandleFunc("POST /api/v1/impacts", h.strike)
	mux.HandleFunc("GET /api/v1/impacts/latest", h.latest)
	mux.HandleFunc("POST /api/v1/narratives", h.narrate)

	// A narrative request spans a geocode and a generate call.
	writeTimeout := max(10*time.Second, narrativeTimeout+5*time.Second)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           loggingMiddleware(logger)(mux),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
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

// probePath reports health and readiness probes, which log at debug.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
