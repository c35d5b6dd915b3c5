package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

type Metrics struct {
	WebhookEvents    *prometheus.CounterVec
	CheckoutSessions *prometheus.CounterVec
	EmailsSent       *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "webhook_events_total",
			Help:      "Inbound payment webhook events by type and outcome.",
		}, []string{"event_type", "outcome"}),
		CheckoutSessions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "checkout_sessions_total",
			Help:      "Checkout session creations by result.",
		}, []string{"result"}),
		EmailsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "emails_sent_total",
			Help:      "Transactional emails by template and outcome.",
		}, []string{"template", "outcome"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) RecordCheckoutSession(result string) {
	if m == nil {
		return
	}
	m.CheckoutSessions.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordEmail(template, outcome string) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(template, outcome).Inc()
}

// GinMiddleware observes request latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
