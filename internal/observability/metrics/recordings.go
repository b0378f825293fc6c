package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RecordingMetrics contains the metrics of the recording pipeline.
type RecordingMetrics struct {
	OperationsTotal       *prometheus.CounterVec
	OperationDuration     *prometheus.HistogramVec
	ErrorsTotal           *prometheus.CounterVec
	Stored                prometheus.Gauge
	TranscriptionDuration *prometheus.HistogramVec
	LocationResolutions   *prometheus.CounterVec
}

// NewRecordingMetrics creates the pipeline metrics and registers them
func NewRecordingMetrics(registry *prometheus.Registry) (*RecordingMetrics, error) {
	m := &RecordingMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register recording metrics: %w", err)
	}
	return m, nil
}

func (m *RecordingMetrics) initMetrics() {
	m.OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memobread_recording_operations_total",
		Help: "Total number of recording operations by operation and status",
	}, []string{"operation", "status"})

	m.OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memobread_recording_operation_duration_seconds",
		Help:    "Duration of recording operations in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"operation"})

	m.ErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memobread_recording_errors_total",
		Help: "Total number of recording errors by operation and category",
	}, []string{"operation", "category"})

	m.Stored = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "memobread_recordings_stored",
		Help: "Number of recordings currently held in the store",
	})

	m.TranscriptionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "memobread_transcription_duration_seconds",
		Help:    "Duration of speech-to-text calls in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"provider", "status"})

	m.LocationResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memobread_location_resolutions_total",
		Help: "Total number of location lookups by result (resolved, unknown, skipped)",
	}, []string{"result"})
}

// RecordOperation implements Recorder
func (m *RecordingMetrics) RecordOperation(operation, status string) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *RecordingMetrics) RecordDuration(operation string, seconds float64) {
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *RecordingMetrics) RecordError(operation, errorType string) {
	m.ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetStored updates the stored recordings gauge
func (m *RecordingMetrics) SetStored(n int) {
	m.Stored.Set(float64(n))
}

// ObserveTranscription records one speech-to-text call
func (m *RecordingMetrics) ObserveTranscription(provider string, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.TranscriptionDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

// RecordLocation counts a location lookup outcome
func (m *RecordingMetrics) RecordLocation(result string) {
	m.LocationResolutions.WithLabelValues(result).Inc()
}

// Describe implements the prometheus.Collector interface.
func (m *RecordingMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.OperationsTotal.Describe(ch)
	m.OperationDuration.Describe(ch)
	m.ErrorsTotal.Describe(ch)
	m.Stored.Describe(ch)
	m.TranscriptionDuration.Describe(ch)
	m.LocationResolutions.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *RecordingMetrics) Collect(ch chan<- prometheus.Metric) {
	m.OperationsTotal.Collect(ch)
	m.OperationDuration.Collect(ch)
	m.ErrorsTotal.Collect(ch)
	m.Stored.Collect(ch)
	m.TranscriptionDuration.Collect(ch)
	m.LocationResolutions.Collect(ch)
}
