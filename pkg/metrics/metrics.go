package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "turnover"

	// Status label values for success/error metrics
	StatusSuccess = "success"
	StatusError   = "error"

	// Event kind label values
	KindCreate = "create"
	KindSpend  = "spend"

	Kafka  = "kafka"
	Series = "series"
)

// Labels holds constant labels applied to all metrics.
// These are useful for distinguishing metrics from multiple estimator runs.
type Labels struct {
	Environment   string // Deployment environment (e.g., "production", "staging", "development")
	Region        string // Cloud region (e.g., "us-east-1", "eu-west-1")
	CloudProvider string // Cloud provider (e.g., "aws", "oci", "gcp")
}

// toPrometheusLabels converts Labels to prometheus.Labels map.
// Only non-empty labels are included to avoid empty label values.
func (l Labels) toPrometheusLabels() prometheus.Labels {
	labels := prometheus.Labels{}
	if l.Environment != "" {
		labels["environment"] = l.Environment
	}
	if l.Region != "" {
		labels["region"] = l.Region
	}
	if l.CloudProvider != "" {
		labels["cloud_provider"] = l.CloudProvider
	}
	return labels
}

type Metrics struct {
	// Stream intake
	events          *prometheus.CounterVec // by kind
	createEvents    prometheus.Counter
	spendEvents     prometheus.Counter
	recordsRejected prometheus.Counter
	handoffDepth    prometheus.Gauge
	lastHeight      prometheus.Gauge

	// Per-window tracker state
	spendsMatched *prometheus.CounterVec // by window
	rotations     *prometheus.CounterVec // by window
	liveKeys      *prometheus.GaugeVec   // by window

	// Rendering
	seriesRendered *prometheus.CounterVec   // by sink, status
	renderDuration *prometheus.HistogramVec // by sink

	// Kafka
	messagesReceived prometheus.Counter
	recordsPublished *prometheus.CounterVec // by status
	kafkaErrors      *prometheus.CounterVec // by severity (fatal/non_fatal)
}

// New creates a new Metrics instance and registers all metrics with the provided registerer.
// Returns an error if any metric registration fails.
// For metrics with constant labels (e.g., environment), use NewWithLabels instead.
func New(reg prometheus.Registerer) (*Metrics, error) {
	return NewWithLabels(reg, Labels{})
}

// NewWithLabels creates a new Metrics instance with constant labels applied to all metrics.
func NewWithLabels(reg prometheus.Registerer, labels Labels) (*Metrics, error) {
	// Wrap the registerer with constant labels if any are provided
	promLabels := labels.toPrometheusLabels()
	if len(promLabels) > 0 {
		reg = prometheus.WrapRegistererWith(promLabels, reg)
	}

	return newMetrics(reg)
}

// newMetrics is the internal constructor that creates and registers all metrics.
func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Total decoded events by kind (create/spend)",
		}, []string{"kind"}),
		recordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_rejected_total",
			Help:      "Total input records that failed to decode",
		}),
		handoffDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "handoff_depth",
			Help:      "Number of decoded events waiting between ingestion and aggregation",
		}),
		lastHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_height",
			Help:      "Block height of the most recently aggregated event",
		}),
		spendsMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "spends_matched_total",
			Help:      "Total spends matched against a window's live set",
		}, []string{"window"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rotations_total",
			Help:      "Total window rotations that recorded a ratio sample",
		}, []string{"window"}),
		liveKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "live_keys",
			Help:      "Current live set size per window",
		}, []string{"window"}),
		seriesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Series,
			Name:      "rendered_total",
			Help:      "Total reduced series handed to a sink by sink and status",
		}, []string{"sink", "status"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Series,
			Name:      "render_duration_seconds",
			Help:      "Time taken by a sink to render one series",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"sink"}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Kafka,
			Name:      "messages_received_total",
			Help:      "Total Kafka messages consumed as input",
		}),
		recordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Kafka,
			Name:      "records_published_total",
			Help:      "Total records produced to Kafka by delivery status",
		}, []string{"status"}),
		kafkaErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Kafka,
			Name:      "errors_total",
			Help:      "Total number of Kafka errors received by severity (fatal/non_fatal)",
		}, []string{"severity"}),
	}

	err := errors.Join(
		reg.Register(m.events),
		reg.Register(m.recordsRejected),
		reg.Register(m.handoffDepth),
		reg.Register(m.lastHeight),
		reg.Register(m.spendsMatched),
		reg.Register(m.rotations),
		reg.Register(m.liveKeys),
		reg.Register(m.seriesRendered),
		reg.Register(m.renderDuration),
		reg.Register(m.messagesReceived),
		reg.Register(m.recordsPublished),
		reg.Register(m.kafkaErrors),
	)
	if err != nil {
		return nil, err
	}

	// Resolved once; RecordEvent runs for every input record.
	m.createEvents = m.events.WithLabelValues(KindCreate)
	m.spendEvents = m.events.WithLabelValues(KindSpend)

	return m, nil
}

// RecordEvent counts one decoded event.
func (m *Metrics) RecordEvent(spend bool) {
	if m == nil {
		return
	}
	if spend {
		m.spendEvents.Inc()
		return
	}
	m.createEvents.Inc()
}

// IncRecordsRejected counts one record that failed to decode.
func (m *Metrics) IncRecordsRejected() {
	if m == nil {
		return
	}
	m.recordsRejected.Inc()
}

// SetHandoffDepth records the number of events buffered between stages.
func (m *Metrics) SetHandoffDepth(n int) {
	if m == nil {
		return
	}
	m.handoffDepth.Set(float64(n))
}

// SetLastHeight records the height of the latest aggregated event.
func (m *Metrics) SetLastHeight(h uint32) {
	if m == nil {
		return
	}
	m.lastHeight.Set(float64(h))
}

// Window returns the collectors for one window size.
func (m *Metrics) Window(size uint32) *WindowMetrics {
	if m == nil {
		return nil
	}
	label := strconv.FormatUint(uint64(size), 10)
	return &WindowMetrics{
		spendsMatched: m.spendsMatched.WithLabelValues(label),
		rotations:     m.rotations.WithLabelValues(label),
		liveKeys:      m.liveKeys.WithLabelValues(label),
	}
}

// RecordSeriesRendered records a sink outcome with duration.
// Pass nil error for successful renders, non-nil for failures.
func (m *Metrics) RecordSeriesRendered(sink string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.seriesRendered.WithLabelValues(sink, status).Inc()
	m.renderDuration.WithLabelValues(sink).Observe(durationSeconds)
}

// RecordMessageReceived increments the received counter when a message is polled from Kafka.
func (m *Metrics) RecordMessageReceived() {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
}

// RecordPublished records a Kafka delivery report.
func (m *Metrics) RecordPublished(err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.recordsPublished.WithLabelValues(status).Inc()
}

// RecordKafkaError records a Kafka error by severity.
// fatal=true for fatal errors, false for non-fatal.
func (m *Metrics) RecordKafkaError(fatal bool) {
	if m == nil {
		return
	}
	severity := "non_fatal"
	if fatal {
		severity = "fatal"
	}
	m.kafkaErrors.WithLabelValues(severity).Inc()
}

// WindowMetrics holds the resolved per-window collectors.
type WindowMetrics struct {
	spendsMatched prometheus.Counter
	rotations     prometheus.Counter
	liveKeys      prometheus.Gauge
}

// Observe records the outcome of one tracker observation.
func (w *WindowMetrics) Observe(rotated, matched bool) {
	if w == nil {
		return
	}
	if rotated {
		w.rotations.Inc()
	}
	if matched {
		w.spendsMatched.Inc()
	}
}

// SetLive records the current live set size.
func (w *WindowMetrics) SetLive(n int) {
	if w == nil {
		return
	}
	w.liveKeys.Set(float64(n))
}
