package metrics

import (
	"strconv"
	"time"

	"jetwallet/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jetwallet"

// Metrics implements ports.Metrics and exposes HTTP request collectors.
type Metrics struct {
	commands        *prometheus.CounterVec
	commandLatency  *prometheus.HistogramVec
	priceRefreshes  *prometheus.CounterVec
	alertsTriggered prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_commands_total",
			Help:      "Wallet commands processed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		commandLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wallet_command_duration_seconds",
			Help:      "Time to validate, apply and persist a wallet command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		priceRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_refresh_total",
			Help:      "Price provider fetch attempts, by provider and result.",
		}, []string{"source", "result"}),
		alertsTriggered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_alerts_triggered_total",
			Help:      "Price alerts that fired.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: reg,
	}
}

// CommandProcessed records one wallet command.
func (m *Metrics) CommandProcessed(kind domain.TransactionType, outcome string, elapsed time.Duration) {
	m.commands.WithLabelValues(string(kind), outcome).Inc()
	m.commandLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// PriceRefreshed records one provider fetch.
func (m *Metrics) PriceRefreshed(source string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.priceRefreshes.WithLabelValues(source, result).Inc()
}

// AlertsTriggered adds n fired alerts.
func (m *Metrics) AlertsTriggered(n int) {
	m.alertsTriggered.Add(float64(n))
}

// Middleware counts requests by their route template, not the raw path.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
