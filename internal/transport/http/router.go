package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"identity/internal/intent"
	obsmw "identity/internal/observability/middleware"
	"identity/internal/ratelimit"
	"identity/internal/service"
	"identity/internal/session"
)

// RouterConfig carries the transport knobs the router needs.
type RouterConfig struct {
	Pipeline    PipelineConfig
	CORSOrigins string
}

// NewRouter assembles the chi stack: edge middlewares first, then the
// identity pipeline, then the application routes.
func NewRouter(cfg RouterConfig, svc service.IdentityService, limiter *ratelimit.FixedWindow, memory *session.Memory, classifier intent.Classifier, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	// Coarse per-IP edge guard in front of identity resolution; the
	// per-device fixed window inside the pipeline is the real limit.
	r.Use(httprate.LimitByIP(300, 1*time.Minute))

	corsOpts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	// Cookie-bearing requests cannot pair with a wildcard
	// Access-Control-Allow-Origin, so without a configured allowlist the
	// caller's origin is echoed back instead of "*".
	if origins := splitOrigins(cfg.CORSOrigins); len(origins) > 0 {
		corsOpts.AllowedOrigins = origins
	} else {
		corsOpts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	}
	r.Use(cors.Handler(corsOpts))

	r.Use(obsmw.WithMetrics)

	pipeline := NewPipeline(svc, limiter, logger, cfg.Pipeline)
	r.Use(pipeline.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	h := NewHandlers(svc, memory, classifier, logger)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/me", h.me)
		r.Post("/me/actions", h.trackAction)

		r.Get("/me/preferences", h.getPreferences)
		r.Put("/me/preferences", h.setPreferences)
		r.Get("/me/preferences/{key}", h.getPreference)
		r.Delete("/me/preferences/{key}", h.deletePreference)

		r.Get("/identity/stats", h.stats)

		r.Post("/chat", h.chat)
	})

	return r
}

func splitOrigins(raw string) []string {
	out := []string{}
	for _, o := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	return out
}
