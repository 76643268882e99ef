package oracle

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o oraclefakes/fake_oracle.go . Oracle

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/configspace/configcount/pkg/basestate"
)

// Closure is the configurator's answer to adding one option to a
// configuration: the options it added on its own and the options it
// removed to stay consistent.
type Closure struct {
	Added     []string `json:"engineAddedOptions"`
	Removed   []string `json:"removedOptions"`
	UserAdded []string `json:"userAddedOptions,omitempty"`
	// Feasible is the resulting configuration reported by the
	// configurator, when it reports one.
	Feasible []string `json:"feasibleOptions,omitempty"`
}

// Oracle answers point feasibility queries: what happens when option
// is added to the configuration state.
type Oracle interface {
	Query(ctx context.Context, state basestate.State, option string) (Closure, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, state basestate.State, option string) (Closure, error)

func (f OracleFunc) Query(ctx context.Context, state basestate.State, option string) (Closure, error) {
	return f(ctx, state, option)
}

type throttled struct {
	oracle  Oracle
	limiter *rate.Limiter
}

// Throttle returns an Oracle that issues at most one query per
// interval to o. A non-positive interval disables throttling.
func Throttle(o Oracle, interval time.Duration) Oracle {
	if interval <= 0 {
		return o
	}
	return &throttled{
		oracle:  o,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (t *throttled) Query(ctx context.Context, state basestate.State, option string) (Closure, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Closure{}, err
	}
	return t.oracle.Query(ctx, state, option)
}
