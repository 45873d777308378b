package courier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCallsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_courier_calls_total",
			Help: "Courier calls dispatched, by transport and outcome.",
		},
		[]string{"transport", "outcome"},
	)

	metricBadEnvelope = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_courier_bad_envelope_total",
			Help: "Payloads rejected before reaching dispatch, by transport.",
		},
		[]string{"transport"},
	)
)
