package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/getmockd/mockgate/pkg/dispatch"
	"github.com/getmockd/mockgate/pkg/module"
)

// Namespace prefixes every metric name.
const Namespace = "mockgate"

// Fallback label values.
const (
	FallbackProxy    = "proxy"
	FallbackNotFound = "not_found"
)

// Metrics holds the collectors of one gateway. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DispatchTotal     *prometheus.CounterVec
	DispatchDuration  *prometheus.HistogramVec
	SuspendedContexts prometheus.Gauge
	ModuleLoads       *prometheus.CounterVec
	Fallbacks         *prometheus.CounterVec
}

var _ dispatch.Observer = (*Metrics)(nil)

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "dispatch_total",
				Help:      "Intercepted requests dispatched to mock modules, partitioned by variant and outcome.",
			},
			[]string{"variant", "outcome"},
		),
		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent resolving, invoking and shaping a mock response, excluding module delays.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"variant"},
		),
		SuspendedContexts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "suspended_contexts",
			Help:      "Request contexts suspended by the dispatcher and not yet resumed.",
		}),
		ModuleLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "module_loads_total",
				Help:      "Mock module resolutions, partitioned by result.",
			},
			[]string{"result"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "fallback_total",
				Help:      "Requests that were not intercepted, partitioned by how they were answered.",
			},
			[]string{"fallback"},
		),
	}
	m.registry.MustRegister(
		m.DispatchTotal,
		m.DispatchDuration,
		m.SuspendedContexts,
		m.ModuleLoads,
		m.Fallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnSuspend implements dispatch.Observer.
func (m *Metrics) OnSuspend(dispatch.Variant) {
	if m == nil {
		return
	}
	m.SuspendedContexts.Inc()
}

// OnResume implements dispatch.Observer.
func (m *Metrics) OnResume(dispatch.Variant) {
	if m == nil {
		return
	}
	m.SuspendedContexts.Dec()
}

// OnDispatch implements dispatch.Observer.
func (m *Metrics) OnDispatch(variant dispatch.Variant, outcome dispatch.Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(string(variant), string(outcome)).Inc()
	m.DispatchDuration.WithLabelValues(string(variant)).Observe(d.Seconds())
}

// LoadHook returns a module.LoadHook counting module resolutions.
func (m *Metrics) LoadHook() module.LoadHook {
	return func(_, outcome string) {
		if m == nil {
			return
		}
		m.ModuleLoads.WithLabelValues(outcome).Inc()
	}
}

// ObserveFallback counts a request that was not intercepted.
func (m *Metrics) ObserveFallback(fallback string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(fallback).Inc()
}
