package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Outcome     = "outcome"
	BudgetLabel = "budget"
	Succeeded   = "succeeded"
	Failed      = "failed"

	// Probe outcomes.
	Queried = "queried"
	Cached  = "cached"
	Skipped = "skipped"
)

// To add new metrics:
// 1. Register new metrics in Register() below.
// 2. Add an Emit or Register helper for the stage that updates it.
var (
	probeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configcount_probes_total",
			Help: "Monotonic count of feasibility probes by outcome",
		},
		[]string{Outcome},
	)

	rulesCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "configcount_rules",
			Help: "Number of unique implication rules discovered so far",
		},
	)

	modelVariables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "configcount_model_variables",
			Help: "Number of variables of the latest CNF model",
		},
	)

	modelClauses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "configcount_model_clauses",
			Help: "Number of clauses of the latest CNF model",
		},
	)

	countSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "configcount_count_duration_seconds",
			Help:       "The duration of an exact model count",
			Objectives: map[float64]float64{0.95: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{Outcome},
	)

	log10Count = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "configcount_count_log10",
			Help: "Base-10 logarithm of the exact count at a sample budget",
		},
		[]string{BudgetLabel},
	)

	replayRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "configcount_replay_rejections_total",
			Help: "Monotonic count of sampled configurations the configurator rejected on replay",
		},
	)
)

// Register adds every collector to the default registry.
func Register() {
	prometheus.MustRegister(probeTotal)
	prometheus.MustRegister(rulesCount)
	prometheus.MustRegister(modelVariables)
	prometheus.MustRegister(modelClauses)
	prometheus.MustRegister(countSummary)
	prometheus.MustRegister(log10Count)
	prometheus.MustRegister(replayRejections)
}

// WriteFile writes the default registry in the text exposition format.
func WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func EmitProbe(outcome string) {
	probeTotal.WithLabelValues(outcome).Inc()
}

func EmitRules(n int) {
	rulesCount.Set(float64(n))
}

func EmitModelSize(vars, clauses int) {
	modelVariables.Set(float64(vars))
	modelClauses.Set(float64(clauses))
}

func RegisterCountSuccess(duration time.Duration) {
	countSummary.WithLabelValues(Succeeded).Observe(duration.Seconds())
}

func RegisterCountFailure(duration time.Duration) {
	countSummary.WithLabelValues(Failed).Observe(duration.Seconds())
}

func EmitCount(budget int, log10 float64) {
	log10Count.WithLabelValues(strconv.Itoa(budget)).Set(log10)
}

func EmitReplayRejection() {
	replayRejections.Inc()
}
