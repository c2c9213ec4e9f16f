package metrics

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "omnipos_inventory"

type Metrics struct {
	StockOperations   *prometheus.CounterVec
	OrderTransitions  *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StockOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_operations_total",
			Help:      "Ledger operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions by target status and outcome.",
		}, []string{"to", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of a unit of work, lock waits included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(m.StockOperations, m.OrderTransitions, m.OperationDuration)
	return m
}

// Outcome is "ok" or the lower-level error kind, e.g. "INSUFFICIENT_STOCK".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperror.KindOf(err).String()
}

func (m *Metrics) ObserveStockOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StockOperations.WithLabelValues(op, Outcome(err)).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveTransition(to string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(to, Outcome(err)).Inc()
	m.OperationDuration.WithLabelValues("order_" + to).Observe(time.Since(start).Seconds())
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
