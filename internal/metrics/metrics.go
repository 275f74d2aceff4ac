// Package metrics collects and exposes Prometheus metrics for the auth core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth and session lifecycle events.
type Collector struct {
	signIns          *prometheus.CounterVec
	signInFailures   *prometheus.CounterVec
	sessionsIssued   prometheus.Counter
	sessionsRevoked  prometheus.Counter
	sessionsReaped   prometheus.Counter
	validations      *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authsvc_sign_in_total",
			Help: "Successful sign-ins by provider.",
		}, []string{"provider"}),
		signInFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authsvc_sign_in_failure_total",
			Help: "Failed sign-ins by provider and reason.",
		}, []string{"provider", "reason"}),
		sessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authsvc_sessions_issued_total",
			Help: "Sessions issued.",
		}),
		sessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authsvc_sessions_revoked_total",
			Help: "Sessions revoked explicitly (sign-out or device revocation).",
		}),
		sessionsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authsvc_sessions_reaped_total",
			Help: "Expired sessions removed by the reaper.",
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authsvc_session_validation_total",
			Help: "Session validations by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.signIns,
		c.signInFailures,
		c.sessionsIssued,
		c.sessionsRevoked,
		c.sessionsReaped,
		c.validations,
	)

	return c
}

// NewRegistry returns a registry preloaded with Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes the registry over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (c *Collector) RecordSignIn(provider string)                 { c.signIns.WithLabelValues(provider).Inc() }
func (c *Collector) RecordSignInFailure(provider, reason string)  { c.signInFailures.WithLabelValues(provider, reason).Inc() }
func (c *Collector) RecordSessionIssued()                         { c.sessionsIssued.Inc() }
func (c *Collector) RecordSessionRevoked(n int64)                 { c.sessionsRevoked.Add(float64(n)) }
func (c *Collector) RecordSessionsReaped(n int64)                 { c.sessionsReaped.Add(float64(n)) }
func (c *Collector) RecordValidation(outcome string)              { c.validations.WithLabelValues(outcome).Inc() }
