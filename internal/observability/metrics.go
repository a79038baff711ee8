package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

const namespace = "weather_normalizer"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// normalization pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Ingest metrics.
	ReadAttempts    *prometheus.CounterVec // labels: format={epw,espr,csv,cache}, outcome={success,error}
	DewPointRepairs *prometheus.CounterVec // labels: kind={repaired,fallback,missing}
	ValuesCleared   prometheus.Counter
	RecordsLoaded   prometheus.Counter
	TableCache      *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total ingest requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total normalized tables handed to the sinks.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total ingest requests that could not be normalized.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of ingest requests per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ReadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_attempts_total",
			Help:      "Weather file reader attempts by format and outcome.",
		}, []string{"format", "outcome"}),
		DewPointRepairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dew_point_values_total",
			Help:      "Derived dew-point values that needed repair, by kind.",
		}, []string{"kind"}),
		ValuesCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_cleared_total",
			Help:      "Out-of-range values replaced with missing by the sanitizer.",
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Hourly records written by the sinks.",
		}),
		TableCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_cache_total",
			Help:      "Parsed-table cache lookups by result.",
		}, []string{"result"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ReadAttempts,
		m.DewPointRepairs,
		m.ValuesCleared,
		m.RecordsLoaded,
		m.TableCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// ObserveAttempt records one reader attempt.
func (m *Metrics) ObserveAttempt(format domain.Format, ok bool) {
	outcome := "error"
	if ok {
		outcome = "success"
	}
	m.ReadAttempts.WithLabelValues(string(format), outcome).Inc()
}

// ObserveDewPoint records the repair counts of one derived dew-point column.
func (m *Metrics) ObserveDewPoint(s domain.DewPointStats) {
	m.DewPointRepairs.WithLabelValues("repaired").Add(float64(s.Repaired))
	m.DewPointRepairs.WithLabelValues("fallback").Add(float64(s.Fallback))
	m.DewPointRepairs.WithLabelValues("missing").Add(float64(s.Missing))
}

// ObserveCache records a parsed-table cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.TableCache.WithLabelValues(result).Inc()
}
