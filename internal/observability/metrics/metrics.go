package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	IdentityResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_resolutions_total",
			Help: "Identity resolutions by source: cookie, fingerprint, created, degraded.",
		},
		[]string{"service", "source"},
	)

	IdentitiesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identities_created_total",
			Help: "Brand-new anonymous identities minted.",
		},
		[]string{"service"},
	)

	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rejected by the per-identity rate limiter.",
		},
		[]string{"service"},
	)

	RetentionDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_deleted_total",
			Help: "Identities reaped by the retention sweep.",
		},
		[]string{"service"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	IdentityResolutionsTotal = IdentityResolutionsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	IdentitiesCreatedTotal = IdentitiesCreatedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	RateLimitedTotal = RateLimitedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	RetentionDeletedTotal = RetentionDeletedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		IdentityResolutionsTotal,
		IdentitiesCreatedTotal,
		RateLimitedTotal,
		RetentionDeletedTotal,
	)
}
