package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeOK labels exchanges that passed validation
const OutcomeOK = "ok"

// outcomeTransport labels exchanges that failed inside the HTTP client
const outcomeTransport = "transport"

// Metrics records one observation per HTTP exchange
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the exchange collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smarthttp",
			Name:      "requests_total",
			Help:      "Smart HTTP exchanges by service, method and outcome.",
		}, []string{"service", "method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smarthttp",
			Name:      "request_duration_seconds",
			Help:      "Time from sending a smart HTTP request to validating its response headers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(route Route, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route.Service, route.Method, outcome(err)).Inc()
	m.duration.WithLabelValues(route.Service, route.Method).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if kind := KindOf(err); kind != "" {
		return string(kind)
	}
	return outcomeTransport
}
