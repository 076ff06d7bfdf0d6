package proxy

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the proxy's Prometheus collectors.
type Metrics struct {
	Requests         *prometheus.CounterVec
	UpstreamStatus   *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonuskeeper_proxy_requests_total",
			Help: "Requests received by the forwarding endpoint, by outcome",
		}, []string{"outcome"}),
		UpstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bonuskeeper_proxy_upstream_responses_total",
			Help: "Upstream responses relayed, by HTTP status code",
		}, []string{"code"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bonuskeeper_proxy_upstream_duration_seconds",
			Help:    "Latency of upstream calls",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.UpstreamStatus, m.UpstreamDuration)
	}
	return m
}

func (m *Metrics) observeOutcome(outcome string) {
	m.Requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeUpstream(status int, elapsed time.Duration) {
	m.UpstreamStatus.WithLabelValues(strconv.Itoa(status)).Inc()
	m.UpstreamDuration.Observe(elapsed.Seconds())
}
