package count

import (
	"context"
	"math/big"
	"time"

	"github.com/configspace/configcount/pkg/cnf"
)

// Counter computes the exact number of satisfying assignments of a
// formula over all of its variables. Implementations never return an
// approximation: an instance they cannot finish is an error.
type Counter interface {
	Count(ctx context.Context, f *cnf.Formula) (*big.Int, error)
}

// Result pairs a count with the size of the model that produced it.
type Result struct {
	Count   *big.Int `json:"count"`
	Rules   int      `json:"rules"`
	Clauses int      `json:"clauses"`
	Vars    int      `json:"vars"`
}

type InstrumentedCounter struct {
	counter               Counter
	successMetricsEmitter func(time.Duration)
	failureMetricsEmitter func(time.Duration)
}

var _ Counter = &InstrumentedCounter{}

func NewInstrumentedCounter(counter Counter, successMetricsEmitter, failureMetricsEmitter func(time.Duration)) *InstrumentedCounter {
	return &InstrumentedCounter{
		counter:               counter,
		successMetricsEmitter: successMetricsEmitter,
		failureMetricsEmitter: failureMetricsEmitter,
	}
}

func (ic *InstrumentedCounter) Count(ctx context.Context, f *cnf.Formula) (*big.Int, error) {
	start := time.Now()
	n, err := ic.counter.Count(ctx, f)
	if err != nil {
		ic.failureMetricsEmitter(time.Since(start))
	} else {
		ic.successMetricsEmitter(time.Since(start))
	}
	return n, err
}

func pow2(k int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(k))
}
