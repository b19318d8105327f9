package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// WagerMetrics records operation activity and the two balances the escrow
// invariant links together.
type WagerMetrics struct {
	operations    *prometheus.CounterVec
	potGauge      prometheus.Gauge
	escrowGauge   prometheus.Gauge
	registry      *prometheus.Registry
	registerOnce  sync.Once
	registerError error
}

var (
	wagerMetricsOnce sync.Once
	wagerRegistry    *WagerMetrics
)

// Wager returns the lazily-initialised metrics registry for the wager
// engine.
func Wager() *WagerMetrics {
	wagerMetricsOnce.Do(func() {
		wagerRegistry = &WagerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nugwager",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			potGauge: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "nugwager",
				Subsystem: "engine",
				Name:      "pot",
				Help:      "Sum of stake obligations not yet settled.",
			}),
			escrowGauge: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "nugwager",
				Subsystem: "engine",
				Name:      "escrow_balance",
				Help:      "Current escrow vault balance.",
			}),
			registry: prometheus.NewRegistry(),
		}
	})
	return wagerRegistry
}

// Registry exposes the prometheus registry backing the wager metrics,
// registering the collectors on first use.
func (m *WagerMetrics) Registry() (*prometheus.Registry, error) {
	m.registerOnce.Do(func() {
		for _, collector := range []prometheus.Collector{m.operations, m.potGauge, m.escrowGauge} {
			if err := m.registry.Register(collector); err != nil {
				m.registerError = err
				return
			}
		}
	})
	return m.registry, m.registerError
}

// ObserveOperation counts one engine operation with its outcome label
// ("ok", "deferred" or an error class).
func (m *WagerMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// SetBalances updates the pot and escrow gauges after an operation.
func (m *WagerMetrics) SetBalances(pot, escrow uint64) {
	if m == nil {
		return
	}
	m.potGauge.Set(float64(pot))
	m.escrowGauge.Set(float64(escrow))
}
