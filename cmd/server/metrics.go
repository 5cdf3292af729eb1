package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/himanishpuri/SampleSensei/pkg/sensei"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	SearchRequestsTotal prometheus.Counter
	SamplesIndexedTotal prometheus.Counter
	GenerationsTotal    *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all collectors registered
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SearchRequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sensei_search_requests_total",
			Help: "Total number of ranked search requests",
		}),
		SamplesIndexedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "sensei_samples_indexed_total",
			Help: "Total number of samples added by scans",
		}),
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensei_generations_total",
				Help: "Total number of generation requests",
			},
			[]string{"generator", "status"},
		),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func generationStatus(res sensei.GenerationResult) string {
	switch {
	case res.Success:
		return "success"
	case res.Unavailable:
		return "unavailable"
	default:
		return "error"
	}
}
