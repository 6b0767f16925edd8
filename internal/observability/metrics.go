package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
)

// Metrics holds the server's Prometheus collectors
type Metrics struct {
	events       *prometheus.CounterVec
	joinFailures *prometheus.CounterVec
	towns        prometheus.Gauge
	sessions     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "town_events_total",
				Help: "Total number of events emitted by towns",
			},
			[]string{"type"},
		),
		joinFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "town_join_failures_total",
				Help: "Total number of rejected joins",
			},
			[]string{"reason"},
		),
		towns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "town_active_towns",
			Help: "Number of live towns",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "town_active_sessions",
			Help: "Number of connected players across all towns",
		}),
	}
	reg.MustRegister(m.events, m.joinFailures, m.towns, m.sessions)
	return m
}

// Listener returns a town listener that records every event
func (m *Metrics) Listener() town.Listener {
	return town.ListenerFunc(m.observe)
}

func (m *Metrics) observe(event model.Event) {
	m.events.WithLabelValues(string(event.Type)).Inc()
	switch event.Type {
	case model.EventPlayerJoined:
		m.sessions.Inc()
	case model.EventPlayerDisconnected:
		m.sessions.Dec()
	}
}

// TownCreated records a new live town
func (m *Metrics) TownCreated() {
	m.towns.Inc()
}

// TownDeleted records a town going away along with its remaining sessions
func (m *Metrics) TownDeleted(occupancy int) {
	m.towns.Dec()
	m.sessions.Sub(float64(occupancy))
}

// JoinFailed records a rejected join
func (m *Metrics) JoinFailed(reason string) {
	m.joinFailures.WithLabelValues(reason).Inc()
}
