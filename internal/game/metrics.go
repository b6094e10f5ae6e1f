package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_sessions_created_total",
		Help: "Game sessions created, by mode.",
	}, []string{"mode"})

	guessesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoquiz_guesses_submitted_total",
		Help: "Guesses accepted and scored.",
	})

	sessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geoquiz_sessions_completed_total",
		Help: "Game sessions completed, by mode.",
	}, []string{"mode"})
)
