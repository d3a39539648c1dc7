package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-internal counters. Everything is registered
// on a private registry so tests can construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	PollCycles    *prometheus.CounterVec
	FallbackReads prometheus.Counter
	WriteFailures *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resilicore_poll_cycles_total",
			Help: "Completed refresh cycles per polling stream.",
		}, []string{"stream"}),
		FallbackReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resilicore_fallback_reads_total",
			Help: "Incident fetches served from the synthetic fallback set.",
		}),
		WriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resilicore_write_failures_total",
			Help: "Failed write calls against the backend incident service.",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.PollCycles,
		m.FallbackReads,
		m.WriteFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
