// Package metrics exposes policy counters in Prometheus format.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kindklick/internal/models"
)

const namespace = "kindklick"

// Metrics tracks engine and lifecycle counters on a private registry
type Metrics struct {
	registry *prometheus.Registry

	verdicts       *prometheus.CounterVec
	redirects      *prometheus.CounterVec
	approvals      *prometheus.CounterVec
	swept          prometheus.Counter
	pinFailures    prometheus.Counter
	accessRequests prometheus.Counter
}

// New creates a Metrics instance with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "URL evaluations by action and reason.",
		}, []string{"action", "reason"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "safesearch_redirects_total",
			Help:      "Safe-search rewrites by search engine.",
		}, []string{"engine"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_granted_total",
			Help:      "Parent approvals granted by mode.",
		}, []string{"mode"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_swept_total",
			Help:      "Expired approvals removed by the sweep.",
		}),
		pinFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pin_failures_total",
			Help:      "Rejected parent PIN attempts.",
		}),
		accessRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_requests_total",
			Help:      "Access requests recorded from the block page.",
		}),
	}

	m.registry.MustRegister(
		m.verdicts,
		m.redirects,
		m.approvals,
		m.swept,
		m.pinFailures,
		m.accessRequests,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveVerdict counts one evaluation
func (m *Metrics) ObserveVerdict(v models.Verdict) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(string(v.Action), string(v.Reason)).Inc()
}

// ObserveRedirect counts one safe-search rewrite
func (m *Metrics) ObserveRedirect(engine string) {
	if m == nil {
		return
	}
	m.redirects.WithLabelValues(engine).Inc()
}

// ObserveGrant counts one approval grant
func (m *Metrics) ObserveGrant(mode models.ApprovalMode) {
	if m == nil {
		return
	}
	m.approvals.WithLabelValues(string(mode)).Inc()
}

// ObserveSwept adds n removed approvals
func (m *Metrics) ObserveSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}

// ObservePinFailure counts one rejected PIN or token
func (m *Metrics) ObservePinFailure() {
	if m == nil {
		return
	}
	m.pinFailures.Inc()
}

// ObserveAccessRequest counts one recorded request
func (m *Metrics) ObserveAccessRequest() {
	if m == nil {
		return
	}
	m.accessRequests.Inc()
}
