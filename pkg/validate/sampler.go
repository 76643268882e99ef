package validate

import (
	"context"
	"math/big"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/configspace/configcount/pkg/cnf"
	"github.com/configspace/configcount/pkg/count"
)

// ErrUnsatisfiable is returned when sampling from a model without
// solutions.
var ErrUnsatisfiable = errors.New("model has no satisfying assignment")

// Sampler draws uniformly distributed satisfying assignments of a
// model. Each variable is fixed in turn, true with probability
// count(fixed, v) / count(fixed), so every solution is equally likely.
type Sampler struct {
	Counter count.Counter
	Model   *cnf.Model
	rng     *rand.Rand
}

func NewSampler(counter count.Counter, m *cnf.Model, seed int64) *Sampler {
	return &Sampler{
		Counter: counter,
		Model:   m,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Sample returns the options selected in one satisfying assignment,
// in variable order.
func (s *Sampler) Sample(ctx context.Context) ([]string, error) {
	f := &s.Model.Formula
	total, err := s.Counter.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return nil, ErrUnsatisfiable
	}

	var selected []string
	for v := 1; v <= f.NumVars; v++ {
		positive := f.With([]int{v})
		n, err := s.Counter.Count(ctx, positive)
		if err != nil {
			return nil, errors.Wrapf(err, "conditioning variable %d", v)
		}
		r := new(big.Int).Rand(s.rng, total)
		if r.Cmp(n) < 0 {
			f, total = positive, n
			if id, ok := s.Model.Option(v); ok {
				selected = append(selected, id)
			}
			continue
		}
		f = f.With([]int{-v})
		total = new(big.Int).Sub(total, n)
	}
	return selected, nil
}

// Samples draws n assignments.
func (s *Sampler) Samples(ctx context.Context, n int) ([][]string, error) {
	result := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		sample, err := s.Sample(ctx)
		if err != nil {
			return nil, err
		}
		result = append(result, sample)
	}
	return result, nil
}
