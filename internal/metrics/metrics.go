// Package metrics provides Prometheus metrics for monitoring the sync
// engine: connection state, frame routing rates, reconnects, and
// outbound publish counts.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Connected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chatsync_connected",
		Help: "1 while the transport connection is established, 0 otherwise",
	})
	Reconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_reconnects_total",
		Help: "Total number of reconnect attempts after unplanned drops",
	})
	FramesRouted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chatsync_frames_routed_total",
		Help: "Total inbound frames routed, by frame kind",
	}, []string{"kind"})
	ParseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_frame_parse_errors_total",
		Help: "Total inbound frames dropped due to decode errors",
	})
	MessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_messages_sent_total",
		Help: "Total outbound messages published",
	})
	SendsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_sends_rejected_total",
		Help: "Total sends rejected while disconnected or rate limited",
	})
	NoticesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_notices_dropped_total",
		Help: "Total server error notices dropped because the queue was closed",
	})
)

func init() {
	prometheus.MustRegister(
		Connected,
		Reconnects,
		FramesRouted,
		ParseErrors,
		MessagesSent,
		SendsRejected,
		NoticesDropped,
	)
}
