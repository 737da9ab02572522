package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docgate/internal/metrics"
)

const staticImagesPrefix = "/static/images/"

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORSOrigins     []string
	CORSCredentials bool
	CORSMaxAgeSec   int
	APIKeys         []string
	StaticImagesDir string
}

// NewRouter mounts the gateway routes behind the middleware stack.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: cfg.CORSCredentials,
		MaxAge:           cfg.CORSMaxAgeSec,
	}))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/documents/add", s.AddDocument)
	r.Post("/documents/query", s.QueryDocuments)
	r.Post("/chat", s.Chat)
	r.Get("/health_status", s.HealthStatus)
	r.Post("/extract/schema", s.ExtractSchema)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle(staticImagesPrefix+"*",
		http.StripPrefix(staticImagesPrefix, staticFiles(cfg.StaticImagesDir)))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "Method Not Allowed")
	})

	return r
}
