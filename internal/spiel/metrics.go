package spiel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "spielapi",
		Name:      "spiel_operations_total",
		Help:      "Spiel service operations by outcome",
	},
	[]string{"operation", "outcome"},
)

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		if k := KindOf(err); k != 0 {
			outcome = k.String()
		} else {
			outcome = "error"
		}
	}
	operationsTotal.WithLabelValues(op, outcome).Inc()
}
