// Package metrics holds the Prometheus collectors for engine operations.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	// Engine operations served, by operation and outcome
	OperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bidsim_operations_total",
		Help: "Total number of engine operations by operation and status",
	}, []string{"operation", "status"})

	// Latency of engine operations
	OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bidsim_operation_duration_seconds",
		Help:    "Latency of engine operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// Monte Carlo trials executed
	SimulationTrials = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bidsim_simulation_trials_total",
		Help: "Total number of Monte Carlo trials executed",
	})

	// Distribution of simulated win probabilities, in percent
	WinProbability = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bidsim_win_probability_percent",
		Help:    "Win probability reported by simulations",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})

	// Optimizer runs split by whether a winning discount exists
	OptimizerOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bidsim_optimizer_outcomes_total",
		Help: "Discount optimizer runs by achievability",
	}, []string{"achievable"})
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			OperationsTotal,
			OperationDuration,
			SimulationTrials,
			WinProbability,
			OptimizerOutcomes,
		)
	})
}

// ObserveOperation records the latency and outcome of one engine operation.
func ObserveOperation(operation string, start time.Time, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveSimulation records the size and headline result of a Monte Carlo run.
func ObserveSimulation(iterations int, winProbability float64) {
	SimulationTrials.Add(float64(iterations))
	WinProbability.Observe(winProbability)
}

// ObserveOptimization records whether the optimizer found a winning discount.
func ObserveOptimization(achievable bool) {
	label := "false"
	if achievable {
		label = "true"
	}
	OptimizerOutcomes.WithLabelValues(label).Inc()
}
