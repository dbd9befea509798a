// Package metrics exposes Prometheus collectors for the card service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CardsGenerated counts persisted cards by source ("single" or "batch").
	CardsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelcards_cards_generated_total",
			Help: "Total number of generated and stored cards",
		},
		[]string{"source"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelcards_generation_failures_total",
			Help: "Total number of failed image generations",
		},
		[]string{"source"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pixelcards_generation_duration_seconds",
			Help:    "Latency of external image generation calls",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
	)

	// LikeToggles counts like-card calls by action ("like" or "unlike").
	LikeToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pixelcards_like_toggles_total",
			Help: "Total number of like and unlike operations",
		},
		[]string{"action"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pixelcards_circuit_breaker_state",
			Help: "Image generation circuit breaker state",
		},
		[]string{"name"},
	)
)
