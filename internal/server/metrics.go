package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the server's Prometheus collectors. It satisfies
// game.Metrics so actors can report without importing this package.
type Metrics struct {
	registry *prometheus.Registry

	ActiveGames      prometheus.Gauge
	ConnectedClients prometheus.Gauge
	GamesCreated     prometheus.Counter
	GamesFinished    prometheus.Counter
	ActionsApplied   *prometheus.CounterVec
	ActionsRejected  *prometheus.CounterVec
}

// NewMetrics builds and registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ActiveGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "buckeuchre",
			Name:      "active_games",
			Help:      "Number of live games.",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "buckeuchre",
			Name:      "connected_clients",
			Help:      "Number of open websocket connections.",
		}),
		GamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "buckeuchre",
			Name:      "games_created_total",
			Help:      "Games created since start.",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "buckeuchre",
			Name:      "games_finished_total",
			Help:      "Games played to completion.",
		}),
		ActionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buckeuchre",
			Name:      "actions_applied_total",
			Help:      "Accepted player actions by type.",
		}, []string{"type"}),
		ActionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buckeuchre",
			Name:      "actions_rejected_total",
			Help:      "Rejected player actions by error code.",
		}, []string{"code"}),
	}
	m.registry.MustRegister(
		m.ActiveGames,
		m.ConnectedClients,
		m.GamesCreated,
		m.GamesFinished,
		m.ActionsApplied,
		m.ActionsRejected,
	)
	return m
}

// Registry returns the underlying registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ActionApplied implements game.Metrics
func (m *Metrics) ActionApplied(actionType string) {
	m.ActionsApplied.WithLabelValues(actionType).Inc()
}

// ActionRejected implements game.Metrics
func (m *Metrics) ActionRejected(code string) {
	m.ActionsRejected.WithLabelValues(code).Inc()
}

// GameFinished implements game.Metrics
func (m *Metrics) GameFinished() {
	m.GamesFinished.Inc()
}
