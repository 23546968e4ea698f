package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdstage_verifications_total",
		Help: "Total number of verification runs, labelled by pass/fail status.",
	}, []string{"status"})

	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdstage_rebuilds_total",
		Help: "Total number of patch rebuild attempts, labelled by status.",
	}, []string{"status"})

	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pdstage_simulations_total",
		Help: "Total number of selection queries, labelled by outcome.",
	}, []string{"outcome"})

	ValuesResolved = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pdstage_values_resolved",
		Help: "Number of router values with a resolved expectation in the current patch.",
	})

	PatchBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pdstage_patch_build_duration_ms",
		Help:    "Parse-and-resolve latency for a patch in milliseconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
	})
)
