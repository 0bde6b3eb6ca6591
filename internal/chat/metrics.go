package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connected_clients",
		Help: "Number of currently connected clients",
	})

	RejectedConnections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_rejected_connections_total",
		Help: "Connections closed at accept time because the server was full",
	})

	RoomsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_rooms",
		Help: "Number of rooms that exist",
	})

	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total frames received from clients by type",
	}, []string{"type"})

	FileBytesRelayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_file_bytes_relayed_total",
		Help: "File payload bytes read from senders and fanned out to rooms",
	})

	EventProcessingDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_event_processing_seconds",
		Help:    "Time to fan out one frame to a room, by frame type",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(ConnectedClients)
	prometheus.MustRegister(RejectedConnections)
	prometheus.MustRegister(RoomsTotal)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(FileBytesRelayed)
	prometheus.MustRegister(EventProcessingDuration)
}
