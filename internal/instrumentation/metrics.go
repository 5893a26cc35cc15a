package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the order analytics service.
type Metrics struct {
	EventsProcessed    *prometheus.CounterVec
	DuplicateEvents    prometheus.Counter
	UnknownEvents      prometheus.Counter
	TimestampFallbacks prometheus.Counter
	PersistFailures    prometheus.Counter
	ProcessingMs       prometheus.Histogram
	StreamLagMs        prometheus.Histogram
	PushSubscribers    prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orderanalytics_events_processed_total",
			Help: "Total number of order events that produced an aggregate effect, by kind",
		}, []string{"kind"}),

		DuplicateEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderanalytics_duplicate_events_total",
			Help: "Total number of events rejected by the dedup gate",
		}),

		UnknownEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderanalytics_unknown_events_total",
			Help: "Total number of events dropped for an unrecognized event type",
		}),

		TimestampFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderanalytics_timestamp_fallbacks_total",
			Help: "Total number of events whose timestamp could not be parsed and defaulted to processing time",
		}),

		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orderanalytics_persist_failures_total",
			Help: "Total number of failed snapshot persistence attempts",
		}),

		ProcessingMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orderanalytics_processing_ms",
			Help:    "Time to apply one event to the snapshot in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		StreamLagMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orderanalytics_stream_lag_ms",
			Help:    "Time between event timestamp and processing time in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2000, 5000},
		}),

		PushSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "orderanalytics_push_subscribers",
			Help: "Number of currently registered push subscribers",
		}),
	}
}

// RecordEventProcessed increments the processed counter for an event kind.
func (m *Metrics) RecordEventProcessed(kind string) {
	m.EventsProcessed.WithLabelValues(kind).Inc()
}

// RecordDuplicate increments the duplicate counter.
func (m *Metrics) RecordDuplicate() {
	m.DuplicateEvents.Inc()
}

// RecordUnknownKind increments the unknown-event counter.
func (m *Metrics) RecordUnknownKind() {
	m.UnknownEvents.Inc()
}

// RecordTimestampFallback increments the timestamp fallback counter.
func (m *Metrics) RecordTimestampFallback() {
	m.TimestampFallbacks.Inc()
}

// RecordPersistFailure increments the persistence failure counter.
func (m *Metrics) RecordPersistFailure() {
	m.PersistFailures.Inc()
}

// RecordProcessing records the time spent applying one event.
func (m *Metrics) RecordProcessing(ms float64) {
	m.ProcessingMs.Observe(ms)
}

// RecordStreamLag records the lag between event timestamp and processing time.
func (m *Metrics) RecordStreamLag(ms float64) {
	m.StreamLagMs.Observe(ms)
}

// SetPushSubscribers records the current subscriber count.
func (m *Metrics) SetPushSubscribers(n int) {
	m.PushSubscribers.Set(float64(n))
}
