package caja

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics exposes Prometheus collectors for the register ledger.
type Metrics struct {
	sessions        *prometheus.CounterVec
	movements       *prometheus.CounterVec
	movementAmounts *prometheus.CounterVec
	closingAmount   prometheus.Histogram
}

// NewMetrics registers the ledger metrics against registerer. A nil
// registerer yields a nil *Metrics, which records nothing.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		return nil
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "almacen_caja_sessions_total",
		Help: "Register sessions partitioned by lifecycle event.",
	}, []string{"event"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "almacen_caja_movements_total",
		Help: "Recorded register movements by kind.",
	}, []string{"kind"})
	amounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "almacen_caja_movement_amount_total",
		Help: "Sum of recorded movement amounts by kind.",
	}, []string{"kind"})
	closing := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "almacen_caja_closing_amount",
		Help:    "Closing balance of register sessions.",
		Buckets: prometheus.ExponentialBuckets(1000, 2, 12),
	})
	registerer.MustRegister(sessions, movements, amounts, closing)
	return &Metrics{sessions: sessions, movements: movements, movementAmounts: amounts, closingAmount: closing}
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("opened").Inc()
}

func (m *Metrics) sessionClosed(closing decimal.Decimal) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("closed").Inc()
	m.closingAmount.Observe(closing.InexactFloat64())
}

func (m *Metrics) movementRecorded(mv Movement) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(string(mv.Kind)).Inc()
	m.movementAmounts.WithLabelValues(string(mv.Kind)).Add(mv.Amount.InexactFloat64())
}
