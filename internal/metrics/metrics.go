package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Org check outcomes.
const (
	OrgVerified          = "verified"
	OrgPermissionDenied  = "insufficient_permission"
	OrgUpstreamFailed    = "upstream_error"
	OrgMissingField      = "missing_field"
	OrgUnexpectedFailure = "error"
)

// Metrics owns a registry and the collectors recorded by the server and the
// login service. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	loginsTotal         *prometheus.CounterVec
	orgChecksTotal      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"method", "path", "status"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sfdc_logins_total",
			Help: "Completed login callbacks by provider and result",
		}, []string{"provider", "result"}), // result: success|failure

		orgChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sfdc_org_checks_total",
			Help: "Org capability checks by provider and outcome",
		}, []string{"provider", "result"}),
	}
	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.loginsTotal,
		m.orgChecksTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) LoginCompleted(provider string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.loginsTotal.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) OrgCheck(provider, result string) {
	if m == nil {
		return
	}
	m.orgChecksTotal.WithLabelValues(provider, result).Inc()
}

// Logins exposes the login counter, for tests.
func (m *Metrics) Logins() *prometheus.CounterVec {
	return m.loginsTotal
}

// OrgChecks exposes the org check counter, for tests.
func (m *Metrics) OrgChecks() *prometheus.CounterVec {
	return m.orgChecksTotal
}
