package spp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnectionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xnsd_spp_connections_opened_total",
		Help: "SPP connections accepted.",
	})

	metricConnectionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_spp_connections_closed_total",
			Help: "SPP connections torn down, by reason.",
		},
		[]string{"reason"},
	)

	metricPacketsRetransmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xnsd_spp_packets_retransmitted_total",
		Help: "Data packets retransmitted after RTO expiry.",
	})

	metricDuplicatesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xnsd_spp_duplicates_total",
		Help: "Data packets received with seq already delivered.",
	})

	metricOutOfWindow = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xnsd_spp_out_of_window_total",
		Help: "Data packets dropped for falling outside the receive window.",
	})
)
