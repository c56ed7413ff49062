package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes
const (
	PollApplied      = "applied"
	PollStale        = "stale"
	PollInactive     = "inactive"
	PollError        = "error"
	PollUnauthorized = "unauthorized"
)

// Collector holds the portal's Prometheus metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pollsTotal          *prometheus.CounterVec
	pollDuration        prometheus.Histogram
	calendarEventsTotal *prometheus.CounterVec
	viewsActive         prometheus.Gauge
	sessionsExpired     prometheus.Counter
	recordsRejected     *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry so several can
// coexist in one process.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_feed_polls_total",
				Help: "Consultation feed polls by outcome",
			},
			[]string{"outcome"},
		),
		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "portal_feed_poll_duration_seconds",
				Help:    "Duration of consultation feed fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		calendarEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_calendar_events_total",
				Help: "Calendar notifications emitted to the shell",
			},
			[]string{"event"},
		),
		viewsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "portal_views_active",
				Help: "Number of mounted viewer views",
			},
		),
		sessionsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_sessions_expired_total",
				Help: "Views torn down because the clinical API rejected the session",
			},
		),
		recordsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_records_rejected_total",
				Help: "Fetched records excluded during normalization",
			},
			[]string{"resource"},
		),
	}
	c.registry.MustRegister(
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.pollsTotal,
		c.pollDuration,
		c.calendarEventsTotal,
		c.viewsActive,
		c.sessionsExpired,
		c.recordsRejected,
	)
	return c
}

func (c *Collector) RecordPoll(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.pollsTotal.WithLabelValues(outcome).Inc()
	c.pollDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordCalendarEvent(event string) {
	if c == nil {
		return
	}
	c.calendarEventsTotal.WithLabelValues(event).Inc()
}

func (c *Collector) ViewMounted() {
	if c == nil {
		return
	}
	c.viewsActive.Inc()
}

func (c *Collector) ViewUnmounted() {
	if c == nil {
		return
	}
	c.viewsActive.Dec()
}

func (c *Collector) RecordSessionExpired() {
	if c == nil {
		return
	}
	c.sessionsExpired.Inc()
}

func (c *Collector) RecordRejected(resource string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.recordsRejected.WithLabelValues(resource).Add(float64(n))
}

// Handler returns the Prometheus metrics HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per route.
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		c.httpRequestsTotal.WithLabelValues(ctx.Request.Method, endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpRequestDuration.WithLabelValues(ctx.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
