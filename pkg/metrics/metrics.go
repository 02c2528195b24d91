package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InversionIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etas_inversion_iterations_total",
		Help: "Total number of EM iterations across inversion runs.",
	})

	InversionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etas_inversion_runs_total",
		Help: "Total number of inversion runs, labelled by final state.",
	}, []string{"state"})

	InversionLogLikelihood = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "etas_inversion_log_likelihood",
		Help: "Observed-data log-likelihood of the most recent EM iteration.",
	})

	SimulatedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etas_simulated_events_total",
		Help: "Total number of synthetic events across simulation runs.",
	})

	SimulationOverflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etas_simulation_overflows_total",
		Help: "Total number of realizations aborted by the safety caps.",
	})

	EnsembleRealizations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etas_ensemble_realizations_total",
		Help: "Total number of completed ensemble realizations.",
	})
)
