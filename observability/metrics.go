package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_charts"

// Metrics holds the counters and histograms of one run.
type Metrics struct {
	RowsLoaded       *prometheus.CounterVec   // labels: dataset
	ChartsRendered   *prometheus.CounterVec   // labels: chart
	NullCells        *prometheus.GaugeVec     // labels: chart
	PipelineFailures *prometheus.CounterVec   // labels: pipeline
	PipelineDuration *prometheus.HistogramVec // labels: pipeline

	registry *prometheus.Registry
}

// NewMetrics creates the run metrics on a private registry, so repeated runs in one process never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Records read from each dataset.",
		}, []string{"dataset"}),
		ChartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Charts written to disk.",
		}, []string{"chart"}),
		NullCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "null_cells",
			Help:      "Matrix cells without data in the last rendered chart.",
		}, []string{"chart"}),
		PipelineFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_failures_total",
			Help:      "Pipelines that ended with an error.",
		}, []string{"pipeline"}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of a load, transform and render cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"pipeline"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RowsLoaded,
		m.ChartsRendered,
		m.NullCells,
		m.PipelineFailures,
		m.PipelineDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteFile dumps the registry in the text exposition format, for node_exporter's textfile collector.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
