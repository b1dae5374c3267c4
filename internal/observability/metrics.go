package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	DocumentsLoaded   prometheus.Counter
	NormalizeErrors   prometheus.Counter
	ReachesNormalized prometheus.Counter
	PipelineRunning   prometheus.Gauge

	// Upload metrics.
	UploadBatches       prometheus.Counter
	FeaturesUploaded    prometheus.Counter
	BatchUploadDuration prometheus.Histogram

	// Optional Kafka publishing.
	RecordsPublished prometheus.Counter

	// Source fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error}
	FetchCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DocumentsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "documents_loaded_total",
			Help:      "Total raw documents read from the source.",
		}),
		NormalizeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "normalize_errors_total",
			Help:      "Total documents skipped as malformed during normalization.",
		}),
		ReachesNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "reaches_normalized_total",
			Help:      "Total reaches successfully normalized.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reach_etl",
			Name:      "pipeline_running",
			Help:      "1 while the pipeline run is active, 0 otherwise.",
		}),
		UploadBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "upload_batches_total",
			Help:      "Total feature batches uploaded to the destination layer.",
		}),
		FeaturesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "features_uploaded_total",
			Help:      "Total feature records uploaded to the destination layer.",
		}),
		BatchUploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reach_etl",
			Name:      "batch_upload_duration_seconds",
			Help:      "Duration of one batch upload to the destination layer.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "records_published_total",
			Help:      "Total normalized records published to Kafka.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "fetch_requests_total",
			Help:      "Source document fetches by outcome.",
		}, []string{"outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reach_etl",
			Name:      "fetch_cache_total",
			Help:      "Source document cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.DocumentsLoaded,
		m.NormalizeErrors,
		m.ReachesNormalized,
		m.PipelineRunning,
		m.UploadBatches,
		m.FeaturesUploaded,
		m.BatchUploadDuration,
		m.RecordsPublished,
		m.FetchRequests,
		m.FetchCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so parallel
// tests never hit "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DocumentsLoaded:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "reach_etl", Name: "documents_loaded_total"}),
		NormalizeErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "reach_etl", Name: "normalize_errors_total"}),
		ReachesNormalized:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "reach_etl", Name: "reaches_normalized_total"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "reach_etl", Name: "pipeline_running"}),
		UploadBatches:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "reach_etl", Name: "upload_batches_total"}),
		FeaturesUploaded:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "reach_etl", Name: "features_uploaded_total"}),
		BatchUploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "reach_etl", Name: "batch_upload_duration_seconds"}),
		RecordsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "reach_etl", Name: "records_published_total"}),
		FetchRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "reach_etl", Name: "fetch_requests_total"}, []string{"outcome"}),
		FetchCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "reach_etl", Name: "fetch_cache_total"}, []string{"result"}),
	}
}
