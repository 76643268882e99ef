package convergence

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
)

const (
	DefaultRuleGrowthTolerance = 0.01
	DefaultDeltaLog10Tolerance = 0.01
)

type Status string

const (
	// Converged means the latest count can be reported as final.
	Converged Status = "converged"
	// UpperBound means discovery has not stabilized. An incomplete
	// rule set can only omit restrictions, so the latest count bounds
	// the true count from above.
	UpperBound Status = "upper-bound"
)

// Record is the outcome of the pipeline at one sample budget.
type Record struct {
	N           int      `json:"N"`
	ProbedPairs int      `json:"probed_pairs"`
	UniqueRules int      `json:"unique_rules"`
	NewRules    int      `json:"new_rules_vs_prev"`
	Vars        int      `json:"cnf_vars"`
	Clauses     int      `json:"cnf_clauses"`
	Count       *big.Int `json:"count"`
}

// Step is a Record together with the trend relative to the previous
// budget. The relative fields are nil for the first record, and
// whenever one of the two counts is zero.
type Step struct {
	Record
	Log10Count  *float64 `json:"log10_count"`
	RatioToPrev *float64 `json:"ratio_to_prev"`
	DeltaLog10  *float64 `json:"delta_log10"`
	RuleGrowth  *float64 `json:"rule_growth,omitempty"`
	Converged   bool     `json:"converged"`
}

type Report struct {
	Steps  []Step   `json:"steps"`
	Latest *big.Int `json:"latest"`
	Status Status   `json:"status"`
	// Unsatisfiable is set when the latest count is zero, which is a
	// valid outcome and not an error.
	Unsatisfiable bool `json:"unsatisfiable,omitempty"`
}

// Final reports whether the latest count may be presented as the
// answer rather than as an upper bound.
func (r *Report) Final() bool {
	return r.Status == Converged
}

// Evaluator judges whether a sequence of records at increasing budgets
// has stabilized. A step converges only when the unique-rule count grew
// by at most RuleGrowthTolerance of its previous value and the count
// moved by at most DeltaLog10Tolerance decades.
type Evaluator struct {
	RuleGrowthTolerance float64 `yaml:"ruleGrowthTolerance"`
	DeltaLog10Tolerance float64 `yaml:"deltaLog10Tolerance"`
}

func NewEvaluator() Evaluator {
	return Evaluator{
		RuleGrowthTolerance: DefaultRuleGrowthTolerance,
		DeltaLog10Tolerance: DefaultDeltaLog10Tolerance,
	}
}

// ErrNotAscending is returned for budgets that do not strictly
// increase.
var ErrNotAscending = errors.New("sample budgets must be strictly ascending")

func (e Evaluator) Evaluate(records []Record) (*Report, error) {
	if len(records) == 0 {
		return nil, errors.New("no records to evaluate")
	}
	report := &Report{Status: UpperBound}
	for i, r := range records {
		if r.Count == nil {
			return nil, errors.Errorf("record for N=%d has no count", r.N)
		}
		step := Step{Record: r, Log10Count: Log10(r.Count)}
		if i > 0 {
			prev := records[i-1]
			if r.N <= prev.N {
				return nil, errors.Wrapf(ErrNotAscending, "N=%d follows N=%d", r.N, prev.N)
			}
			e.compare(&step, prev)
		}
		report.Steps = append(report.Steps, step)
	}

	last := report.Steps[len(report.Steps)-1]
	report.Latest = new(big.Int).Set(last.Count)
	report.Unsatisfiable = last.Count.Sign() == 0
	if last.Converged {
		report.Status = Converged
	}
	return report, nil
}

func (e Evaluator) compare(step *Step, prev Record) {
	var growth float64
	switch {
	case prev.UniqueRules > 0:
		growth = float64(step.UniqueRules-prev.UniqueRules) / float64(prev.UniqueRules)
	case step.UniqueRules > 0:
		growth = math.Inf(1)
	}
	if !math.IsInf(growth, 0) {
		step.RuleGrowth = &growth
	}

	if step.Count.Sign() == 0 || prev.Count.Sign() == 0 {
		// Both zero means nothing moved; a single zero is a jump.
		step.Converged = step.Count.Sign() == prev.Count.Sign() && growth <= e.RuleGrowthTolerance
		return
	}
	ratio, _ := new(big.Rat).SetFrac(step.Count, prev.Count).Float64()
	delta := *step.Log10Count - *Log10(prev.Count)
	step.RatioToPrev = &ratio
	step.DeltaLog10 = &delta
	step.Converged = growth <= e.RuleGrowthTolerance && math.Abs(delta) <= e.DeltaLog10Tolerance
}

// Log10 returns the decimal logarithm of a positive n, or nil. It is
// computed from the binary mantissa and exponent so that counts far
// beyond float64 range stay accurate.
func Log10(n *big.Int) *float64 {
	if n.Sign() <= 0 {
		return nil
	}
	mant := new(big.Float)
	exp := new(big.Float).SetInt(n).MantExp(mant)
	m, _ := mant.Float64()
	l := math.Log10(m) + float64(exp)*math.Log10(2)
	return &l
}
