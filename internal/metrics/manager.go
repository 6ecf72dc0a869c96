package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds the service's Prometheus collectors. A nil *Manager is valid
// and records nothing.
type Manager struct {
	CounterRequests      *prometheus.CounterVec
	CounterFoodLookups   *prometheus.CounterVec
	CounterSnapshotSyncs *prometheus.CounterVec
	CounterStrengthRuns  *prometheus.CounterVec

	HistRequestDuration *prometheus.HistogramVec
}

// NewRegistry returns a registry with build info, Go runtime and process
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func NewTestManager() *Manager {
	return NewManager("flexlog", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("flexlog", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of incoming HTTP requests",
		}, []string{"method", "status"}),
		CounterFoodLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "food_lookups_total",
			Help:      "Food search and barcode lookups by source and outcome",
		}, []string{"source", "outcome"}),
		CounterSnapshotSyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "snapshot_syncs_total",
			Help:      "Snapshot reads and writes by operation and outcome",
		}, []string{"op", "outcome"}),
		CounterStrengthRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "strength_computations_total",
			Help:      "Strength series computations by result",
		}, []string{"ok"}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
	}
}

// FoodLookup records a food lookup by source ("fdc", "off") and outcome
// ("hit", "miss", "empty", "error", "disabled").
func (m *Manager) FoodLookup(source, outcome string) {
	if m == nil {
		return
	}
	m.CounterFoodLookups.WithLabelValues(source, outcome).Inc()
}

// SnapshotSync records a snapshot read ("get") or write ("put").
func (m *Manager) SnapshotSync(op, outcome string) {
	if m == nil {
		return
	}
	m.CounterSnapshotSyncs.WithLabelValues(op, outcome).Inc()
}

// StrengthRun records one strength series computation.
func (m *Manager) StrengthRun(ok bool) {
	if m == nil {
		return
	}
	label := "false"
	if ok {
		label = "true"
	}
	m.CounterStrengthRuns.WithLabelValues(label).Inc()
}
