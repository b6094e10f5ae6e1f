package duel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoquiz_duel_challenges_issued_total",
		Help: "Challenge tokens issued by finished challengers.",
	})
	duelsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geoquiz_duels_reconciled_total",
		Help: "Duels settled after both sides completed.",
	})
)
