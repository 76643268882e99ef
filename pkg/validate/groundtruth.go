package validate

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/configspace/configcount/pkg/cnf"
	"github.com/configspace/configcount/pkg/count"
)

// GroundTruthResult is the outcome of forcing a known configuration
// into a model.
type GroundTruthResult struct {
	// Unmapped lists known options that have no model variable.
	Unmapped []string `json:"unmapped,omitempty"`
	// Forced is the number of options that were forced true.
	Forced      int      `json:"forced"`
	Satisfiable bool     `json:"satisfiable"`
	Residual    *big.Int `json:"residual"`
}

// Consistent reports whether the model admits the known
// configuration.
func (r *GroundTruthResult) Consistent() bool {
	return r.Satisfiable && r.Residual.Sign() > 0
}

// GroundTruth forces every mapped option of a known-feasible
// configuration true and reports whether the model still admits it,
// along with the number of completions left. A model that rejects a
// configuration known to be feasible carries a wrong constraint.
func GroundTruth(ctx context.Context, counter count.Counter, m *cnf.Model, known []string) (*GroundTruthResult, error) {
	result := &GroundTruthResult{}
	var units [][]int
	for _, id := range sets.List(sets.New[string](known...)) {
		v, ok := m.VarMap[id]
		if !ok {
			result.Unmapped = append(result.Unmapped, id)
			continue
		}
		units = append(units, []int{v})
	}
	result.Forced = len(units)

	f := m.Formula.With(units...)
	sat, err := cnf.Satisfiable(f)
	if err != nil {
		return nil, errors.Wrap(err, "deciding ground truth")
	}
	result.Satisfiable = sat
	if !sat {
		result.Residual = new(big.Int)
		return result, nil
	}
	if result.Residual, err = counter.Count(ctx, f); err != nil {
		return nil, errors.Wrap(err, "counting ground truth completions")
	}
	return result, nil
}
