// Package metrics holds the Prometheus collectors shared by the game server.
// They are registered with the default registry and served by the ops HTTP
// surface at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "battleship_sessions_active",
			Help: "Connected sessions",
		},
	)
	SessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "battleship_sessions_total",
			Help: "Sessions started since process start",
		},
	)
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battleship_requests_total",
			Help: "Requests handled, by operation and response type",
		},
		[]string{"op", "response"},
	)
	Guesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battleship_guesses_total",
			Help: "Guesses applied to the shared board, by evaluation",
		},
		[]string{"eval"},
	)
	Rounds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battleship_rounds_total",
			Help: "Rounds ended, by result",
		},
		[]string{"result"},
	)
	Admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "battleship_admissions_total",
			Help: "Connection admission decisions",
		},
		[]string{"decision"},
	)
)

func init() {
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(SessionsTotal)
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(Guesses)
	prometheus.MustRegister(Rounds)
	prometheus.MustRegister(Admissions)
}
