// Package pipeline runs probing, aggregation, model building and
// counting at increasing sample budgets and judges convergence.
package pipeline

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/cnf"
	"github.com/configspace/configcount/pkg/convergence"
	"github.com/configspace/configcount/pkg/count"
	"github.com/configspace/configcount/pkg/metrics"
	"github.com/configspace/configcount/pkg/probe"
	"github.com/configspace/configcount/pkg/rules"
	"github.com/configspace/configcount/pkg/validate"
)

// Run is the record of the pipeline at one budget.
type Run struct {
	convergence.Record
	BaseStates int        `json:"base_states"`
	Queried    int        `json:"queried"`
	Cached     int        `json:"cached"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	// ModelRules counts the rules the model was built from: the
	// probed rules counted by UniqueRules plus those only implied by
	// observed records.
	ModelRules int        `json:"model_rules"`
	Model      cnf.Stats  `json:"model"`
	Categories []Category `json:"categories,omitempty"`

	// CrossChecked is set when an independent counter confirmed the
	// count.
	CrossChecked bool                        `json:"cross_checked,omitempty"`
	GroundTruth  *validate.GroundTruthResult `json:"ground_truth,omitempty"`
	Replay       *validate.ReplayReport      `json:"replay,omitempty"`
}

func (r *Run) flag(c Category) {
	for _, each := range r.Categories {
		if each == c {
			return
		}
	}
	r.Categories = append(r.Categories, c)
}

type Report struct {
	Runs        []*Run              `json:"runs"`
	Convergence *convergence.Report `json:"convergence"`
	// Categories lists every category that occurred in any run.
	Categories []Category `json:"categories,omitempty"`
	// ReplayRisk is set when a replayed sample was rejected at any
	// budget.
	ReplayRisk bool `json:"replay_risk,omitempty"`
}

// Pipeline holds the stages shared by the runs at every budget.
type Pipeline struct {
	Generator basestate.Generator
	Prober    *probe.Prober
	Builder   cnf.Builder
	Counter   count.Counter
	// CrossCheck, when set, recounts every model it accepts. A
	// disagreement is a counter failure.
	CrossCheck count.Counter
	Evaluator  convergence.Evaluator
	// Observed are feasibility records captured outside probing; their
	// rules join the rules of every budget.
	Observed []probe.Result
	// Known is a known-feasible configuration checked against every
	// model when not empty.
	Known []string
	// Samples is the number of model samples replayed against the
	// prober's oracle per budget.
	Samples   int
	Seed      int64
	Artifacts Artifacts
	Logger    logrus.FieldLogger
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}

// Build probes the base states of budget n and builds the model,
// without counting. The returned set holds the rules discovered by
// this budget's probes; the model also covers the observed records.
func (p *Pipeline) Build(ctx context.Context, n int) (*Run, *rules.Set, *cnf.Model, error) {
	run := &Run{Record: convergence.Record{N: n}}
	states := p.Generator.Generate(n)
	run.BaseStates = len(states)
	if err := p.Artifacts.WriteJSON(n, "base_states.json", states); err != nil {
		return run, nil, nil, err
	}

	pass, err := p.Prober.Probe(ctx, states)
	if err != nil {
		return run, nil, nil, err
	}
	run.ProbedPairs = pass.Pairs()
	run.Queried, run.Cached, run.Failed, run.Skipped = pass.Queried, pass.Cached, pass.Failed, pass.Skipped
	if pass.Failed > 0 {
		run.flag(TransientOracleFailure)
	}
	if err := p.Artifacts.WriteJSON(n, "constraints.json", pass.Results); err != nil {
		return run, nil, nil, err
	}

	probed := rules.Aggregate(pass.Results)
	run.UniqueRules = probed.Len()
	rs := rules.Aggregate(pass.Results, p.Observed)
	run.ModelRules = rs.Len()
	metrics.EmitRules(rs.Len())
	if err := p.Artifacts.WriteJSON(n, "rules.json", rs); err != nil {
		return run, nil, nil, err
	}

	m, err := p.Builder.Build(rs)
	if err != nil {
		run.flag(ModelBuildInconsistency)
		return run, probed, nil, &Failure{Category: ModelBuildInconsistency, N: n, Err: err}
	}
	run.Model = m.Stats
	run.Vars, run.Clauses = m.Stats.Vars, m.Stats.Clauses
	metrics.EmitModelSize(run.Vars, run.Clauses)
	if err := p.Artifacts.WriteModel(n, m); err != nil {
		return run, probed, nil, err
	}
	return run, probed, m, nil
}

// RunBudget runs the whole pipeline at budget n. prev holds the rules
// of the previous budget, if any, for the new-rule count.
func (p *Pipeline) RunBudget(ctx context.Context, n int, prev *rules.Set) (*Run, *rules.Set, error) {
	logger := p.logger().WithField("N", n)
	run, rs, m, err := p.Build(ctx, n)
	if err != nil {
		return run, rs, err
	}
	if prev == nil {
		prev = rules.NewSet()
	}
	run.NewRules = len(rs.Diff(prev))

	total, err := p.Counter.Count(ctx, &m.Formula)
	if err != nil {
		run.flag(CounterFailure)
		return run, rs, &Failure{Category: CounterFailure, N: n, Err: err}
	}
	run.Count = total
	if total.Sign() == 0 {
		run.flag(UnsatisfiableModel)
		logger.Warn("model is unsatisfiable")
	}
	if l := convergence.Log10(total); l != nil {
		metrics.EmitCount(n, *l)
	}
	if err := p.crossCheck(ctx, run, m); err != nil {
		run.flag(CounterFailure)
		return run, rs, &Failure{Category: CounterFailure, N: n, Err: err}
	}
	result := count.Result{Count: total, Rules: run.ModelRules, Clauses: run.Clauses, Vars: run.Vars}
	if err := p.Artifacts.WriteCount(n, result); err != nil {
		return run, rs, err
	}

	if err := p.validate(ctx, run, m); err != nil {
		return run, rs, err
	}
	if err := p.Artifacts.WriteJSON(n, "stats.json", run); err != nil {
		return run, rs, err
	}
	logger.WithFields(logrus.Fields{
		"pairs":      run.ProbedPairs,
		"rules":      run.UniqueRules,
		"modelRules": run.ModelRules,
		"newRules":   run.NewRules,
		"clauses":    run.Clauses,
		"count":      run.Count.String(),
	}).Info("run complete")
	return run, rs, nil
}

func (p *Pipeline) crossCheck(ctx context.Context, run *Run, m *cnf.Model) error {
	if p.CrossCheck == nil {
		return nil
	}
	n, err := p.CrossCheck.Count(ctx, &m.Formula)
	if errors.Is(err, count.ErrTooLarge) {
		p.logger().WithField("N", run.N).Debug("model too large to cross-check")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "cross-checking count")
	}
	if n.Cmp(run.Count) != 0 {
		return errors.Errorf("cross-check counted %s, expected %s", n, run.Count)
	}
	run.CrossChecked = true
	return nil
}

// validate runs the advisory checks. Their findings are recorded on
// the run; only an interrupted or failing counter is returned.
func (p *Pipeline) validate(ctx context.Context, run *Run, m *cnf.Model) error {
	logger := p.logger().WithField("N", run.N)
	if len(p.Known) > 0 {
		gt, err := validate.GroundTruth(ctx, p.Counter, m, p.Known)
		if err != nil {
			return errors.Wrap(err, "checking ground truth")
		}
		run.GroundTruth = gt
		if !gt.Consistent() {
			logger.WithField("unmapped", len(gt.Unmapped)).Warn("model rejects the known feasible configuration")
		}
	}
	if p.Samples <= 0 || run.Count.Sign() == 0 {
		return nil
	}
	samples, err := validate.NewSampler(p.Counter, m, p.Seed+int64(run.N)).Samples(ctx, p.Samples)
	if err != nil {
		return errors.Wrap(err, "sampling model")
	}
	replay, err := validate.Replay(ctx, p.Prober.Oracle, m, samples, logger)
	if err != nil {
		return errors.Wrap(err, "replaying samples")
	}
	run.Replay = replay
	return nil
}

// Converge runs the pipeline at every budget in ascending order and
// evaluates the trend. A fatal failure stops the sequence; the report
// then covers the budgets completed before it.
func (p *Pipeline) Converge(ctx context.Context, sizes []int) (*Report, error) {
	for i := 1; i < len(sizes); i++ {
		if sizes[i] <= sizes[i-1] {
			return nil, errors.Wrapf(convergence.ErrNotAscending, "%v", sizes)
		}
	}
	report := &Report{}
	var prev *rules.Set
	var records []convergence.Record
	var failure error
	for _, n := range sizes {
		run, rs, err := p.RunBudget(ctx, n, prev)
		report.Runs = append(report.Runs, run)
		for _, c := range run.Categories {
			report.flag(c)
		}
		if err != nil {
			failure = err
			break
		}
		if run.Replay != nil && run.Replay.Risk() {
			report.ReplayRisk = true
		}
		records = append(records, run.Record)
		prev = rs
	}
	if len(records) == 0 {
		return report, failure
	}

	evaluated, err := p.Evaluator.Evaluate(records)
	if err != nil {
		return report, err
	}
	report.Convergence = evaluated
	if err := p.Artifacts.WriteReport(report); err != nil {
		return report, err
	}
	p.logger().WithFields(logrus.Fields{
		"status": evaluated.Status,
		"count":  evaluated.Latest.String(),
	}).Info("convergence evaluated")
	return report, failure
}

func (r *Report) flag(c Category) {
	for _, each := range r.Categories {
		if each == c {
			return
		}
	}
	r.Categories = append(r.Categories, c)
}

// Counted returns the latest count and whether it is final. An
// unconverged count is only an upper bound.
func (r *Report) Counted() (*big.Int, bool) {
	if r.Convergence == nil {
		return nil, false
	}
	return r.Convergence.Latest, r.Convergence.Final()
}
