// Package metrics records batch-run counters and histograms and writes them
// to a Prometheus textfile for node-exporter style collection.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GameObservation summarizes one reconstructed game.
type GameObservation struct {
	// Status is the game outcome label: verified, unverified, failed or
	// missing.
	Status   string
	Duration time.Duration

	// The remaining fields are zero for games that failed before a
	// timeline existed.
	Entries              int
	TOIMismatches        int
	LowConfidenceGoalies int
	PenaltiesBySeverity  map[string]int
	CountMismatches      map[string]int
	ErrorCode            string
}

// Manager owns the batch metrics. A disabled Manager ignores observations.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	games                *prometheus.CounterVec
	errors               *prometheus.CounterVec
	reconstructSeconds   prometheus.Histogram
	timelineSeconds      prometheus.Counter
	toiMismatches        prometheus.Counter
	lowConfidenceGoalies prometheus.Counter
	penalties            *prometheus.CounterVec
	countMismatches      *prometheus.CounterVec
	workers              prometheus.Gauge
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets the buckets of the reconstruction histogram.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithMetricsEnabled enables or disables collection.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithPrometheusRegistry registers the metrics on registry instead of a
// fresh private one.
func WithPrometheusRegistry(registry *prometheus.Registry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// NewManager creates a Manager. Metrics live on a private registry so the
// textfile carries no Go runtime series.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "icetime",
		subsystem:        "batch",
		histogramBuckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.games = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_total",
		Help:      "Games processed, by outcome status",
	}, []string{"status"})

	m.errors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Game failures, by error code",
	}, []string{"code"})

	m.reconstructSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconstruct_duration_seconds",
		Help:      "Wall time spent loading, reconstructing and writing one game",
		Buckets:   m.histogramBuckets,
	})

	m.timelineSeconds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "timeline_entries_total",
		Help:      "Timeline entries produced across all games",
	})

	m.toiMismatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "toi_mismatches_total",
		Help:      "Players whose recounted time on ice disagreed with the report",
	})

	m.lowConfidenceGoalies = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "goalie_low_confidence_total",
		Help:      "Goaltender assignments flagged as low confidence",
	})

	m.penalties = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "penalties_total",
		Help:      "Ledgered penalties, by severity",
	}, []string{"severity"})

	m.countMismatches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "skater_count_mismatch_seconds_total",
		Help:      "Seconds where shift-derived skater counts disagree with the situation code",
	}, []string{"side"})

	m.workers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "workers",
		Help:      "Configured worker pool size",
	})
}

// SetWorkers records the worker pool size.
func (m *Manager) SetWorkers(n int) {
	if !m.enabled {
		return
	}
	m.workers.Set(float64(n))
}

// ObserveGame records one game.
func (m *Manager) ObserveGame(o GameObservation) {
	if !m.enabled {
		return
	}
	m.games.WithLabelValues(o.Status).Inc()
	if o.ErrorCode != "" {
		m.errors.WithLabelValues(o.ErrorCode).Inc()
	}
	m.reconstructSeconds.Observe(o.Duration.Seconds())
	m.timelineSeconds.Add(float64(o.Entries))
	m.toiMismatches.Add(float64(o.TOIMismatches))
	m.lowConfidenceGoalies.Add(float64(o.LowConfidenceGoalies))
	for sev, n := range o.PenaltiesBySeverity {
		m.penalties.WithLabelValues(sev).Add(float64(n))
	}
	for side, n := range o.CountMismatches {
		m.countMismatches.WithLabelValues(side).Add(float64(n))
	}
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric to path in the Prometheus text format.
// The file is replaced atomically.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
