package section

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// fetchCycles counts settled fetch cycles by outcome: applied, stale or failed.
	fetchCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porto_section_fetch_cycles_total",
		Help: "Total fetch cycles by section and outcome",
	}, []string{"section", "outcome"})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "porto_section_fetch_failures_total",
		Help: "Total failed fetch cycles by section",
	}, []string{"section"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "porto_section_fetch_duration_seconds",
		Help:    "Duration of fetch cycles by section",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
	}, []string{"section"})
)
