// Package metrics provides Prometheus metrics for the Clover service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PairsGenerated tracks candidate pairs emitted by blocking
	PairsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "blocking",
			Name:      "pairs_generated_total",
			Help:      "Total number of candidate pairs emitted by blocking",
		},
	)

	// PairsScored tracks pairs scored by the match scorer
	PairsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "scoring",
			Name:      "pairs_scored_total",
			Help:      "Total number of candidate pairs scored",
		},
	)

	// DegenerateTerms tracks log-likelihood terms skipped for numerical safety
	DegenerateTerms = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "scoring",
			Name:      "degenerate_terms_total",
			Help:      "Total number of LLR terms skipped due to non-positive numerator or denominator",
		},
	)

	// EMIterations tracks expectation-maximization iterations by outcome
	EMIterations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "em",
			Name:      "iterations_total",
			Help:      "Total number of EM iterations run, by outcome",
		},
		[]string{"outcome"},
	)

	// LinkRunsTotal tracks full linkage runs by status
	LinkRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clover",
			Subsystem: "linkage",
			Name:      "runs_total",
			Help:      "Total number of linkage runs by status",
		},
		[]string{"status"},
	)

	// LinkRunDuration tracks linkage run duration in seconds
	LinkRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "clover",
			Subsystem: "linkage",
			Name:      "run_duration_seconds",
			Help:      "Duration of linkage runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)
