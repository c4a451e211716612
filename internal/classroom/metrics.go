package classroom

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "classroom_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "classroom_rooms",
			Help: "Current number of live rooms.",
		},
	)
	wsMessagesDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classroom_ws_messages_delivered_total",
			Help: "Total frames queued for delivery to clients.",
		},
	)
	wsMessagesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classroom_ws_messages_received_total",
			Help: "Client messages routed, by message type.",
		},
		[]string{"type"},
	)
	wsFramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classroom_ws_frames_received_total",
			Help: "Inbound websocket frames, by opcode.",
		},
		[]string{"opcode"},
	)
	wsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classroom_ws_dropped_total",
			Help: "Connections force-closed by the server, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		wsConnections,
		wsRooms,
		wsMessagesDelivered,
		wsMessagesReceived,
		wsFramesReceived,
		wsDropped,
	)
}

func incConnections() {
	wsConnections.Inc()
}

func decConnections() {
	wsConnections.Dec()
}

func setRooms(count int) {
	wsRooms.Set(float64(count))
}

func addDelivered(count int) {
	wsMessagesDelivered.Add(float64(count))
}

func incReceived(msgType string) {
	wsMessagesReceived.WithLabelValues(msgType).Inc()
}

func incFrames(opcode string) {
	wsFramesReceived.WithLabelValues(opcode).Inc()
}

func incDropped(reason string) {
	wsDropped.WithLabelValues(reason).Inc()
}
