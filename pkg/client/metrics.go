package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/livesync/pkg/protocol"
)

// MetricsConfig configures the Prometheus metrics of a client.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "livesync").
	Namespace string

	// Subsystem is the metrics subsystem (default: "client").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the client metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "livesync",
		Subsystem: "client",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus metrics of a client. A nil *Metrics records
// nothing.
//
// Metrics collected:
//   - livesync_client_connection_state: Gauge set to 1 for the current state
//   - livesync_client_state_transitions_total: Counter by from, to and event
//   - livesync_client_frames_received_total: Counter by message type
//   - livesync_client_frames_sent_total: Counter by message type
//   - livesync_client_frames_dropped_total: Counter of frames sent while disconnected
//   - livesync_client_decode_errors_total: Counter of undecodable messages
//   - livesync_client_reconnects_total: Counter of reconnection attempts
//   - livesync_client_backoff_seconds: Histogram of reconnection delays
//   - livesync_client_sync_duration_seconds: Histogram of reconciliation time
//   - livesync_client_fetch_errors_total: Counter of failed post fetches by kind
type Metrics struct {
	connState      *prometheus.GaugeVec
	transitions    *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
	framesSent     *prometheus.CounterVec
	framesDropped  *prometheus.CounterVec
	decodeErrors   prometheus.Counter
	reconnects     prometheus.Counter
	backoff        prometheus.Histogram
	syncDuration   *prometheus.HistogramVec
	fetchErrors    *prometheus.CounterVec
}

// NewMetrics registers the client metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		connState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connection_state",
			Help:        "Current connection state (1 for the active state)",
			ConstLabels: config.ConstLabels,
		}, []string{"state"}),

		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "state_transitions_total",
			Help:        "Total number of connection state transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"from", "to", "event"}),

		framesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_received_total",
			Help:        "Total number of frames received by message type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		framesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of frames sent by message type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		framesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_dropped_total",
			Help:        "Total number of outbound frames dropped while disconnected",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		decodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "decode_errors_total",
			Help:        "Total number of inbound messages that could not be decoded",
			ConstLabels: config.ConstLabels,
		}),

		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconnects_total",
			Help:        "Total number of reconnection attempts",
			ConstLabels: config.ConstLabels,
		}),

		backoff: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "backoff_seconds",
			Help:        "Delay before reconnection attempts in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0.5, 1, 2, 5, 10, 30, 65},
		}),

		syncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sync_duration_seconds",
			Help:        "Time from sync reply to completed reconciliation in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"status"}),

		fetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fetch_errors_total",
			Help:        "Total number of failed post fetches",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

func (m *Metrics) recordTransition(from, to ConnState, event ConnEvent) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from.String(), to.String(), event.String()).Inc()
	m.connState.WithLabelValues(from.String()).Set(0)
	m.connState.WithLabelValues(to.String()).Set(1)
}

func (m *Metrics) recordReceived(t protocol.MessageType) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) recordSent(t protocol.MessageType) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) recordDropped(t protocol.MessageType) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) recordDecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) recordReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) recordBackoff(d time.Duration) {
	if m == nil {
		return
	}
	m.backoff.Observe(d.Seconds())
}

func (m *Metrics) recordSync(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.syncDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) recordFetchError(kind string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(kind).Inc()
}
