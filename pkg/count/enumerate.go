package count

import (
	"context"
	"math/big"

	"github.com/crillab/gophersat/solver"
	"github.com/pkg/errors"

	"github.com/configspace/configcount/pkg/cnf"
)

// DefaultEnumerationLimit is the largest number of constrained
// variables Enumerating accepts when no limit is configured.
const DefaultEnumerationLimit = 14

// ErrTooLarge is returned by Enumerating for instances above its
// variable limit.
var ErrTooLarge = errors.New("instance too large to enumerate")

// Enumerating counts by enumerating models one at a time with
// gophersat, blocking each model found before solving again. It is
// only practical on small instances and serves as an independent
// check of Exact.
type Enumerating struct {
	// MaxVars bounds the number of variables occurring in clauses.
	MaxVars int
}

var _ Counter = Enumerating{}

func (e Enumerating) Count(ctx context.Context, f *cnf.Formula) (*big.Int, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	limit := e.MaxVars
	if limit <= 0 {
		limit = DefaultEnumerationLimit
	}

	normalized, ok := normalize(f.Clauses)
	if !ok {
		return new(big.Int), nil
	}

	// Renumber the constrained variables densely; the others are free.
	index := make(map[int]int)
	clauses := make([][]int, 0, len(normalized))
	for _, c := range normalized {
		next := make([]int, len(c))
		for i, l := range c {
			v, ok := index[abs(l)]
			if !ok {
				v = len(index) + 1
				index[abs(l)] = v
			}
			if l < 0 {
				v = -v
			}
			next[i] = v
		}
		clauses = append(clauses, next)
	}
	k := len(index)
	if k > limit {
		return nil, errors.Wrapf(ErrTooLarge, "%d constrained variables, limit %d", k, limit)
	}
	free := pow2(f.NumVars - k)
	if k == 0 {
		return free, nil
	}

	s := solver.New(solver.ParseSlice(clauses))
	models := int64(0)
	for s.Solve() == solver.Sat {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "enumeration interrupted")
		}
		models++
		model := s.Model()
		block := make([]solver.Lit, k)
		for i := 0; i < k; i++ {
			// Block the model: variable i+1 must take the other value.
			block[i] = solver.IntToVar(int32(i + 1)).SignedLit(i < len(model) && model[i])
		}
		s.AppendClause(solver.NewClause(block))
	}
	return new(big.Int).Mul(big.NewInt(models), free), nil
}
