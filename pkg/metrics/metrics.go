package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveRooms tracks rooms currently held by the registry
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_active_rooms",
		Help: "Number of rooms currently in the registry.",
	})

	// ActiveConnections tracks live websocket connections
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signaling_active_connections",
		Help: "Number of open signaling connections.",
	})

	// JoinsTotal counts successful room joins
	JoinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_joins_total",
		Help: "Successful room joins.",
	})

	// JoinRejections counts failed joins by reason
	JoinRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signaling_join_rejections_total",
		Help: "Rejected room joins by reason.",
	}, []string{"reason"})

	// SignalsRelayed counts forwarded signal payloads
	SignalsRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_signals_relayed_total",
		Help: "Signal payloads forwarded between connections.",
	})

	// RoomsSwept counts idle rooms removed by the sweeper
	RoomsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signaling_rooms_swept_total",
		Help: "Idle rooms deleted by the background sweeper.",
	})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
