package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFramesRX = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_dispatch_frames_rx_total",
			Help: "Ethernet frames read off the wire, before any XNS validation.",
		},
		[]string{"iface"},
	)

	metricFramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_dispatch_frames_dropped_total",
			Help: "Frames dropped during IDP decode, by reason.",
		},
		[]string{"iface", "reason"},
	)

	metricPacketsBySocket = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_dispatch_packets_by_socket_total",
			Help: "Valid IDP packets routed to a socket listener, by destination socket.",
		},
		[]string{"iface", "socket"},
	)

	metricNoListener = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_dispatch_no_listener_total",
			Help: "Valid IDP packets addressed to a socket with no registered listener.",
		},
		[]string{"iface", "socket"},
	)

	metricFramesTX = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_dispatch_frames_tx_total",
			Help: "Ethernet frames written to the wire.",
		},
		[]string{"iface"},
	)

	metricTXErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnsd_dispatch_tx_errors_total",
			Help: "Transmit errors returned by the driver.",
		},
		[]string{"iface"},
	)
)
