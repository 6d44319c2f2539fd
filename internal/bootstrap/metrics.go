package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records how the agent's states went. They are written to a
// node-exporter textfile since the agent does not serve HTTP.
type Metrics struct {
	registry       *prometheus.Registry
	stateDuration  *prometheus.GaugeVec
	stateAttempts  *prometheus.CounterVec
	stateCompleted *prometheus.GaugeVec
	lastRun        prometheus.Gauge
}

// NewMetrics creates the agent metrics for one node.
func NewMetrics(nodeName, role string) *Metrics {
	constLabels := prometheus.Labels{"node": nodeName, "role": role}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stateDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   "kubestrap",
				Subsystem:   "agent",
				Name:        "state_duration_seconds",
				Help:        "Wall time spent in a boot state, including retries",
				ConstLabels: constLabels,
			},
			[]string{"state"},
		),
		stateAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "kubestrap",
				Subsystem:   "agent",
				Name:        "state_attempts_total",
				Help:        "Attempts made for a boot state",
				ConstLabels: constLabels,
			},
			[]string{"state"},
		),
		stateCompleted: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   "kubestrap",
				Subsystem:   "agent",
				Name:        "state_completed",
				Help:        "Whether a boot state has completed (1) or not (0)",
				ConstLabels: constLabels,
			},
			[]string{"state"},
		),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "kubestrap",
			Subsystem:   "agent",
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the agent last finished a run",
			ConstLabels: constLabels,
		}),
	}
	m.registry.MustRegister(m.stateDuration, m.stateAttempts, m.stateCompleted, m.lastRun)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) attempt(s State) {
	m.stateAttempts.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) finished(s State, d time.Duration, err error) {
	m.stateDuration.WithLabelValues(string(s)).Set(d.Seconds())
	if err == nil {
		m.stateCompleted.WithLabelValues(string(s)).Set(1)
	} else {
		m.stateCompleted.WithLabelValues(string(s)).Set(0)
	}
}

func (m *Metrics) skipped(s State) {
	m.stateCompleted.WithLabelValues(string(s)).Set(1)
}

// WriteTextfile writes the metrics in text exposition format, creating the
// collector directory when node-exporter is not installed yet. An empty
// path does nothing.
func (m *Metrics) WriteTextfile(path string, now time.Time) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	m.lastRun.Set(float64(now.Unix()))
	return prometheus.WriteToTextfile(path, m.registry)
}
