package pipef

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineMetrics holds the engine's telemetry. A nil receiver disables
// collection, so call sites never branch.
type engineMetrics struct {
	ticks     prometheus.Counter
	items     *prometheus.CounterVec
	transient prometheus.Counter
	running   prometheus.Gauge
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	f := promauto.With(reg)
	return &engineMetrics{
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pipef",
			Name:      "ticks_total",
			Help:      "Number of engine ticks executed.",
		}),
		items: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipef",
			Name:      "source_items_total",
			Help:      "Number of items produced, per source node.",
		}, []string{"node"}),
		transient: f.NewCounter(prometheus.CounterOpts{
			Namespace: "pipef",
			Name:      "transient_errors_total",
			Help:      "Number of items dropped after a transient node error.",
		}),
		running: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "pipef",
			Name:      "running",
			Help:      "Whether a run is in progress.",
		}),
	}
}

func (m *engineMetrics) observeTick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}

func (m *engineMetrics) observeItem(node NodeID) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(string(node)).Inc()
}

func (m *engineMetrics) observeTransient() {
	if m == nil {
		return
	}
	m.transient.Inc()
}

func (m *engineMetrics) observeRunning(up bool) {
	if m == nil {
		return
	}
	if up {
		m.running.Set(1)
	} else {
		m.running.Set(0)
	}
}
