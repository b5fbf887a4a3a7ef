package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"identity/internal/fingerprint"
	"identity/internal/observability/metrics"
	"identity/internal/ratelimit"
	"identity/internal/service"
)

// PipelineConfig tunes the identity middleware.
type PipelineConfig struct {
	CookieName     string
	CookieMaxAge   time.Duration
	CookieSecure   bool
	ResolveTimeout time.Duration
}

// Pipeline is the per-request identity flow: resolve the principal, attach
// it to the context, enforce the rate limit and arrange for the response
// cookie. Resolution failures degrade to an anonymous request; the rate
// check never degrades, it fails closed.
type Pipeline struct {
	svc     service.IdentityService
	limiter *ratelimit.FixedWindow
	logger  *slog.Logger
	cfg     PipelineConfig

	excluded       map[string]struct{}
	excludedPrefix []string
}

func NewPipeline(svc service.IdentityService, limiter *ratelimit.FixedWindow, logger *slog.Logger, cfg PipelineConfig) *Pipeline {
	if cfg.CookieName == "" {
		cfg.CookieName = "device_id"
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = 30 * 24 * time.Hour
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 2 * time.Second
	}
	return &Pipeline{
		svc:     svc,
		limiter: limiter,
		logger:  logger,
		cfg:     cfg,
		excluded: map[string]struct{}{
			"/healthz":      {},
			"/metrics":      {},
			"/docs":         {},
			"/openapi.json": {},
		},
		excludedPrefix: []string{"/static/"},
	}
}

func (p *Pipeline) skip(path string) bool {
	if _, ok := p.excluded[path]; ok {
		return true
	}
	for _, prefix := range p.excludedPrefix {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Handler installs the pipeline in front of next.
func (p *Pipeline) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var cookieValue string
		if c, err := r.Cookie(p.cfg.CookieName); err == nil {
			cookieValue = c.Value
		}

		// The store must not hang a request; resolution either answers
		// quickly or the request proceeds anonymously.
		ctx, cancel := context.WithTimeout(r.Context(), p.cfg.ResolveTimeout)
		res, err := p.svc.Resolve(ctx, cookieValue, fingerprint.Extract(r))
		cancel()

		if err != nil {
			metrics.IdentityResolutionsTotal.WithLabelValues("degraded").Inc()
			p.logger.Error("identity resolution failed, continuing anonymously",
				"error", err,
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r)
			return
		}

		metrics.IdentityResolutionsTotal.WithLabelValues(res.Source).Inc()
		if res.New {
			metrics.IdentitiesCreatedTotal.WithLabelValues().Inc()
		}

		if !p.limiter.Allow(res.Identity.DeviceID) {
			metrics.RateLimitedTotal.WithLabelValues().Inc()
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, slow down")
			return
		}

		p.setDeviceCookie(w, res.Identity.DeviceID)
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), res.Identity)))
	})
}

func (p *Pipeline) setDeviceCookie(w http.ResponseWriter, deviceID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cfg.CookieName,
		Value:    deviceID,
		Path:     "/",
		MaxAge:   int(p.cfg.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   p.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
