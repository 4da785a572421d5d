package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the relay's Prometheus instruments.
type Metrics struct {
	RoomsActive      prometheus.Gauge
	RoomsCreated     prometheus.Counter
	RoomsExpired     prometheus.Counter
	ClientsConnected prometheus.Gauge
	RelayEvents      *prometheus.CounterVec
	DroppedEvents    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RoomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "phantom_rooms_active",
			Help: "Number of rooms currently present in the registry.",
		}),
		RoomsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phantom_rooms_created_total",
			Help: "Total rooms created.",
		}),
		RoomsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "phantom_rooms_expired_total",
			Help: "Total rooms evicted by the sweeper.",
		}),
		ClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "phantom_clients_connected",
			Help: "Number of websocket connections currently attached.",
		}),
		RelayEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phantom_relay_events_total",
			Help: "Inbound relay events handled, by event name.",
		}, []string{"event"}),
		DroppedEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "phantom_relay_events_dropped_total",
			Help: "Inbound events dropped silently, by reason.",
		}, []string{"reason"}),
	}
}

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
