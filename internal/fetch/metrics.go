package fetch

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricRequestsTotal          = "storefront_requests_total"
	MetricRequestDurationSeconds = "storefront_request_duration_seconds"
	MetricTokenRefreshTotal      = "storefront_token_refresh_total"
)

// Metrics records pipeline activity. A nil *Metrics records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshTotal    *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRequestsTotal,
			Help: "HTTP requests issued by the storefront client, by method and status (0 for transport failures).",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRequestDurationSeconds,
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricTokenRefreshTotal,
			Help: "Token refresh cycles by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.requestDuration, m.refreshTotal)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) observeRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}
