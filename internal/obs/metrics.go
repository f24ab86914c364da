package obs

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Metrics tracks application metrics using atomic counters.
type Metrics struct {
	requests       atomic.Int64
	strictPath     atomic.Int64
	customRates    atomic.Int64
	notBookable    atomic.Int64
	upstreamErrors atomic.Int64
	cacheHits      atomic.Int64
	rateLimited    atomic.Int64
	logger         *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger,
	}
}

// IncRequests increments the total resolution counter.
func (m *Metrics) IncRequests() {
	m.requests.Add(1)
}

// IncStrictPath increments the counter of requests resolved from the published calendar.
func (m *Metrics) IncStrictPath() {
	m.strictPath.Add(1)
}

// IncCustomRates increments the counter of requests priced with a custom rate.
func (m *Metrics) IncCustomRates() {
	m.customRates.Add(1)
}

// IncNotBookable increments the non-bookable result counter.
func (m *Metrics) IncNotBookable() {
	m.notBookable.Add(1)
}

// IncUpstreamErrors increments the upstream errors counter.
func (m *Metrics) IncUpstreamErrors() {
	m.upstreamErrors.Add(1)
}

// IncCacheHits increments the cache hits counter.
func (m *Metrics) IncCacheHits() {
	m.cacheHits.Add(1)
}

// IncRateLimited increments the rejected-by-rate-limit counter.
func (m *Metrics) IncRateLimited() {
	m.rateLimited.Add(1)
}

// Snapshot returns current metric values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Requests:       m.requests.Load(),
		StrictPath:     m.strictPath.Load(),
		CustomRates:    m.customRates.Load(),
		NotBookable:    m.notBookable.Load(),
		UpstreamErrors: m.upstreamErrors.Load(),
		CacheHits:      m.cacheHits.Load(),
		RateLimited:    m.rateLimited.Load(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Requests       int64
	StrictPath     int64
	CustomRates    int64
	NotBookable    int64
	UpstreamErrors int64
	CacheHits      int64
	RateLimited    int64
}

type counter struct {
	name  string
	help  string
	value int64
}

func (s MetricsSnapshot) counters() []counter {
	return []counter{
		{"availability_requests_total", "Total number of availability resolutions", s.Requests},
		{"availability_strict_total", "Resolutions answered from the published calendar", s.StrictPath},
		{"availability_custom_rate_total", "Resolutions priced with a custom rate", s.CustomRates},
		{"availability_not_bookable_total", "Resolutions that ended non-bookable", s.NotBookable},
		{"upstream_errors_total", "Total number of upstream inventory errors", s.UpstreamErrors},
		{"cache_hits_total", "Total number of cache hits", s.CacheHits},
		{"rate_limited_total", "Requests rejected by the rate limiter", s.RateLimited},
	}
}

// Format renders the snapshot in Prometheus text format.
func (s MetricsSnapshot) Format() string {
	var b strings.Builder
	for _, c := range s.counters() {
		fmt.Fprintf(&b, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(&b, "# TYPE %s counter\n", c.name)
		fmt.Fprintf(&b, "%s %d\n", c.name, c.value)
	}
	return b.String()
}

// HealthHandler returns a handler for /healthz requests.
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	}
}

// MetricsHandler returns a handler for /metrics requests in Prometheus format.
func (m *Metrics) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.Status(http.StatusOK)
		if _, err := c.Writer.WriteString(m.Snapshot().Format()); err != nil {
			m.logger.Error("failed to write metrics", "error", err)
		}
	}
}
