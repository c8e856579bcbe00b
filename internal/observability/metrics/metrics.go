// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_outbound"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Run metrics
	RunsTotal     prometheus.Counter
	RunsActive    prometheus.Gauge
	RunsSucceeded prometheus.Counter
	RunsFailed    *prometheus.CounterVec
	RunDuration   prometheus.Histogram

	// Stage metrics
	StageDuration *prometheus.HistogramVec
	StageDegraded *prometheus.CounterVec

	// Remote call metrics
	RemoteLatency *prometheus.HistogramVec
	RemoteErrors  *prometheus.CounterVec

	// Generation metrics
	ModelResolutions  *prometheus.CounterVec
	ScriptExtractions *prometheus.CounterVec

	// Audio metrics
	AudioBytes         *prometheus.CounterVec
	StreamLinesSkipped prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// gRPC metrics
	GRPCRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of call-generation runs started",
		}),
		RunsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of runs currently in progress",
		}),
		RunsSucceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_succeeded_total",
			Help:      "Total number of runs that produced audio",
		}),
		RunsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_failed_total",
			Help:      "Total number of runs ended by a fatal stage",
		}, []string{"stage"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end run duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		StageDegraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_degraded_total",
			Help:      "Total number of stages that fell back to defaults or heuristics",
		}, []string{"stage", "reason"}),

		RemoteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_latency_seconds",
			Help:      "Latency of calls to external services in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"service", "op"}),
		RemoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_call_errors_total",
			Help:      "Total number of failed calls to external services",
		}, []string{"service", "kind"}),

		ModelResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_resolutions_total",
			Help:      "Model resolutions by the step that produced the model",
		}, []string{"provider", "step"}),
		ScriptExtractions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "script_extractions_total",
			Help:      "Script fields filled, by extraction strategy",
		}, []string{"strategy"}),

		AudioBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Total bytes of audio containers produced",
		}, []string{"provider"}),
		StreamLinesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_lines_skipped_total",
			Help:      "Malformed lines skipped while decoding synthesis streams",
		}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		GRPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of unary gRPC requests",
		}, []string{"method", "code"}),
	}
}

// RecordRunStart records a new run starting.
func (m *Metrics) RecordRunStart() {
	m.RunsTotal.Inc()
	m.RunsActive.Inc()
}

// RecordRunEnd records a run ending. failedStage is empty on success.
func (m *Metrics) RecordRunEnd(failedStage string, durationSeconds float64) {
	m.RunsActive.Dec()
	m.RunDuration.Observe(durationSeconds)
	if failedStage == "" {
		m.RunsSucceeded.Inc()
		return
	}
	m.RunsFailed.WithLabelValues(failedStage).Inc()
}

// RecordStage records how long a stage took.
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordDegraded records a stage that fell back instead of failing.
func (m *Metrics) RecordDegraded(stage, reason string) {
	m.StageDegraded.WithLabelValues(stage, reason).Inc()
}

// RecordRemoteCall records one external call. kind is empty on success.
func (m *Metrics) RecordRemoteCall(service, op, kind string, latencySeconds float64) {
	m.RemoteLatency.WithLabelValues(service, op).Observe(latencySeconds)
	if kind != "" {
		m.RemoteErrors.WithLabelValues(service, kind).Inc()
	}
}

// RecordModelResolution records which resolution step yielded a model.
func (m *Metrics) RecordModelResolution(provider, step string) {
	m.ModelResolutions.WithLabelValues(provider, step).Inc()
}

// RecordExtraction records a strategy that contributed to a script.
func (m *Metrics) RecordExtraction(strategy string) {
	m.ScriptExtractions.WithLabelValues(strategy).Inc()
}

// RecordAudio records the size of a produced audio container.
func (m *Metrics) RecordAudio(provider string, bytes int) {
	m.AudioBytes.WithLabelValues(provider).Add(float64(bytes))
}

// RecordSkippedLine records a malformed stream line.
func (m *Metrics) RecordSkippedLine() {
	m.StreamLinesSkipped.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordGRPCRequest records a unary gRPC call outcome.
func (m *Metrics) RecordGRPCRequest(method, code string) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
}
