// Package metrics exposes Prometheus metrics for the session lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session lifecycle metrics.
type Metrics struct {
	SignIns          *prometheus.CounterVec
	Refreshes        *prometheus.CounterVec
	SignOuts         prometheus.Counter
	IdentityRequests *prometheus.HistogramVec
}

// New creates and registers all session metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a specific registerer, so tests can use a
// throwaway registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SignIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_signins_total",
			Help: "Sign-in attempts by identity provider and outcome",
		}, []string{"provider", "outcome"}),
		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caregate_refreshes_total",
			Help: "Token refresh attempts by outcome",
		}, []string{"outcome"}),
		SignOuts: factory.NewCounter(prometheus.CounterOpts{
			Name: "caregate_signouts_total",
			Help: "Explicit sign-outs",
		}),
		IdentityRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caregate_identity_request_seconds",
			Help:    "Latency of backend identity API calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// ObserveIdentityRequest implements the identity client's Observer interface.
func (m *Metrics) ObserveIdentityRequest(endpoint string, d time.Duration) {
	m.IdentityRequests.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordSignIn counts a sign-in attempt.
func (m *Metrics) RecordSignIn(provider string, success bool) {
	m.SignIns.WithLabelValues(provider, outcome(success)).Inc()
}

// RecordRefresh counts a refresh attempt.
func (m *Metrics) RecordRefresh(success bool) {
	m.Refreshes.WithLabelValues(outcome(success)).Inc()
}

// RecordSignOut counts an explicit sign-out.
func (m *Metrics) RecordSignOut() {
	m.SignOuts.Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
