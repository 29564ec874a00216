package relay

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are registered on a private registry so several relays can run in
// one process.
type Metrics struct {
	Connections prometheus.Gauge
	Rooms       prometheus.Gauge
	Events      *prometheus.CounterVec
	Dropped     prometheus.Counter

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sharedboard",
			Name:      "relay_connections",
			Help:      "Connected room members.",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sharedboard",
			Name:      "relay_rooms",
			Help:      "Document rooms held in memory.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharedboard",
			Name:      "relay_events_total",
			Help:      "Events received from members, by type.",
		}, []string{"type"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sharedboard",
			Name:      "relay_lagging_disconnects_total",
			Help:      "Members disconnected because their queue was full.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.Connections, m.Rooms, m.Events, m.Dropped)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
