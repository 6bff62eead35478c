// Package metrics provides Prometheus metrics for kobot and the HTTP listener
// that exposes them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcomes.
const (
	OutcomeRegistered   = "registered"
	OutcomeDuplicate    = "duplicate"
	OutcomeUnauthorized = "unauthorized"
	OutcomeIgnored      = "ignored"
	OutcomeStoreError   = "store_error"
)

// Metrics holds kobot's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	registrations    *prometheus.CounterVec
	messagesObserved prometheus.Counter
	listenSize       prometheus.Gauge
	storeUp          prometheus.Gauge
}

// New registers kobot's collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kobot_registrations_total",
			Help: "Channel registration requests by outcome",
		}, []string{"outcome"}),
		messagesObserved: f.NewCounter(prometheus.CounterOpts{
			Name: "kobot_messages_observed_total",
			Help: "Messages observed in listened channels",
		}),
		listenSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "kobot_listen_channels",
			Help: "Number of channels in the in-memory listen set",
		}),
		storeUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "kobot_store_up",
			Help: "Durable store reachable=1 unreachable=0",
		}),
	}
}

// Registration counts one registration request with the given outcome.
func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

// MessageObserved counts one passively observed message.
func (m *Metrics) MessageObserved() {
	if m == nil {
		return
	}
	m.messagesObserved.Inc()
}

// SetListenSize records the size of the in-memory listen set.
func (m *Metrics) SetListenSize(n int) {
	if m == nil {
		return
	}
	m.listenSize.Set(float64(n))
}

// SetStoreUp sets the store gauge to 1 if reachable else 0.
func (m *Metrics) SetStoreUp(up bool) {
	if m == nil {
		return
	}
	if up {
		m.storeUp.Set(1)
	} else {
		m.storeUp.Set(0)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
