package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	ordersCreated    prometheus.Counter
	orderReplays     prometheus.Counter
	checkoutSessions *prometheus.CounterVec
	providerErrors   *prometheus.CounterVec
	markupChanges    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopbridge",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopbridge",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shopbridge",
			Name:      "orders_created_total",
			Help:      "Orders inserted into the ledger.",
		}),
		orderReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shopbridge",
			Name:      "order_replays_total",
			Help:      "Order creations answered with an existing order.",
		}),
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopbridge",
			Name:      "checkout_sessions_total",
			Help:      "Checkout session creation attempts by result.",
		}, []string{"result"}),
		providerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopbridge",
			Name:      "provider_errors_total",
			Help:      "Payment provider call failures by kind.",
		}, []string{"kind"}),
		markupChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shopbridge",
			Name:      "markup_changes_total",
			Help:      "Applied markup changes.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.ordersCreated,
		m.orderReplays,
		m.checkoutSessions,
		m.providerErrors,
		m.markupChanges,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) OrderCreated() {
	if m != nil {
		m.ordersCreated.Inc()
	}
}

func (m *Metrics) OrderReplayed() {
	if m != nil {
		m.orderReplays.Inc()
	}
}

func (m *Metrics) CheckoutSession(result string) {
	if m != nil {
		m.checkoutSessions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ProviderError(kind string) {
	if m != nil {
		m.providerErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) MarkupChanged() {
	if m != nil {
		m.markupChanges.Inc()
	}
}
