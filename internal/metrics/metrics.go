// Package metrics records arctic clocking statistics in a Prometheus
// registry.
//
// A Metrics value implements arctic.Recorder. Pass it with
// arctic.WithRecorder and, when the run is over, export the registry with
// WriteTextfile for the node exporter textfile collector or Gather it
// directly.
//
// All operations are safe for concurrent use.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ctitools/arctic"
)

const (
	metricsNamespace  = "arctic"
	clockingSubsystem = "clocking"
)

// Metrics holds the clocking collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	// RunsTotal counts clocked images.
	// Labels: direction (parallel, serial)
	RunsTotal *prometheus.CounterVec

	// ColumnsTotal counts clocked columns.
	// Labels: direction
	ColumnsTotal *prometheus.CounterVec

	// TransfersTotal counts trap-manager updates, one per phase per step.
	// Labels: direction
	TransfersTotal *prometheus.CounterVec

	// ExpressPasses is the number of express passes of the last run.
	// Labels: direction
	ExpressPasses *prometheus.GaugeVec

	// DurationSeconds measures how long one direction takes.
	// Labels: direction
	DurationSeconds *prometheus.HistogramVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := []string{"direction"}

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: clockingSubsystem,
			Name:      "runs_total",
			Help:      "Images clocked, by direction",
		}, labels),
		ColumnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: clockingSubsystem,
			Name:      "columns_total",
			Help:      "Columns clocked, by direction",
		}, labels),
		TransfersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: clockingSubsystem,
			Name:      "transfers_total",
			Help:      "Trap manager updates, one per phase per clock step",
		}, labels),
		ExpressPasses: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: clockingSubsystem,
			Name:      "express_passes",
			Help:      "Express passes used by the most recent run",
		}, labels),
		DurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: clockingSubsystem,
			Name:      "duration_seconds",
			Help:      "Wall time to clock one image in one direction",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, labels),
	}
}

// RecordClocking implements arctic.Recorder.
func (m *Metrics) RecordClocking(s arctic.ClockingStats) {
	dir := s.Direction.String()
	m.RunsTotal.WithLabelValues(dir).Inc()
	m.ColumnsTotal.WithLabelValues(dir).Add(float64(s.Columns))
	m.TransfersTotal.WithLabelValues(dir).Add(float64(s.Transfers))
	m.ExpressPasses.WithLabelValues(dir).Set(float64(s.ExpressPasses))
	m.DurationSeconds.WithLabelValues(dir).Observe(s.Duration.Seconds())
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the registry in the text exposition format. The
// file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}

var _ arctic.Recorder = (*Metrics)(nil)
