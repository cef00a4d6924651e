package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	compilationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_compilations_total",
			Help: "Total number of quest compilations by result (valid, invalid).",
		},
		[]string{"result"},
	)

	compileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quest_compile_duration_seconds",
		Help:    "Time spent compiling quest sources.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	questsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quest_published_total",
		Help: "Total number of successfully published quests.",
	})

	playthroughsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quest_playthroughs_started_total",
		Help: "Total number of started playthroughs.",
	})

	playthroughMovesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_playthrough_moves_total",
			Help: "Total number of playthrough moves by kind (choice, event) and status (ok, rejected, error).",
		},
		[]string{"kind", "status"},
	)
)
