package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ExtractionsTotal *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
	ImagesTotal      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		ExtractionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_extractions_total",
			Help: "The total number of successful listing extractions",
		}, []string{"site", "strategy"}),
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'unsupported_domain', 'fetch_failed', 'db_save_failed'
		ImagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_images_total",
			Help: "The total number of photo ingestion attempts by outcome",
		}, []string{"outcome"}), // 'stored' or 'failed'
	}
}

func (m *Metrics) IncExtraction(site, strategy string) {
	m.ExtractionsTotal.WithLabelValues(site, strategy).Inc()
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) AddImages(outcome string, n int) {
	m.ImagesTotal.WithLabelValues(outcome).Add(float64(n))
}
