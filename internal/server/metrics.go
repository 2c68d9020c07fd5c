package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatTurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asistan_chat_turns_total",
		Help: "Chat turns processed, labelled by outcome (casual, no_match, answered, error).",
	}, []string{"outcome"})

	chatMatchCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asistan_chat_match_count",
		Help:    "Number of corpus matches per substantive chat turn.",
		Buckets: []float64{0, 1, 2, 3, 5, 8},
	})

	chatTurnSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "asistan_chat_turn_seconds",
		Help:    "Wall time of full chat turns including generation.",
		Buckets: prometheus.DefBuckets,
	})
)
