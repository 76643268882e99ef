// Package oracletest provides a deterministic Oracle driven by a fixed
// rule table, for tests that exercise the probing pipeline end to end.
package oracletest

import (
	"context"
	"errors"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/oracle"
)

// ErrUnavailable is returned for queries adding a failing option.
var ErrUnavailable = errors.New("stub oracle unavailable")

// Query records one call made to a Stub.
type Query struct {
	State  basestate.State
	Option string
}

// Stub answers feasibility queries from its tables. Adding o adds
// every option in Requires[o] missing from the state and removes every
// option in Forbids[o] present in it, together with any other member
// of o's exclusive group.
type Stub struct {
	Requires map[string][]string
	Forbids  map[string][]string
	// Groups maps options to the name of their exclusive group.
	Groups map[string]string
	// Failing lists options whose queries fail with ErrUnavailable.
	Failing map[string]bool

	mu      sync.Mutex
	queries []Query
}

var _ oracle.Oracle = &Stub{}

func (s *Stub) Query(ctx context.Context, state basestate.State, option string) (oracle.Closure, error) {
	s.mu.Lock()
	s.queries = append(s.queries, Query{State: state, Option: option})
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return oracle.Closure{}, err
	}
	if s.Failing[option] {
		return oracle.Closure{}, ErrUnavailable
	}

	present := sets.New[string](state...)
	removed := sets.New[string]()
	for _, r := range s.Forbids[option] {
		if present.Has(r) && r != option {
			removed.Insert(r)
		}
	}
	if g, ok := s.Groups[option]; ok {
		for _, m := range state {
			if m != option && s.Groups[m] == g {
				removed.Insert(m)
			}
		}
	}
	added := sets.New[string]()
	for _, a := range s.Requires[option] {
		if !present.Has(a) && a != option {
			added.Insert(a)
		}
	}

	feasible := present.Difference(removed).Union(added)
	feasible.Insert(option)
	return oracle.Closure{
		Added:    sets.List(added),
		Removed:  sets.List(removed),
		Feasible: sets.List(feasible),
	}, nil
}

// Queries returns every query received so far, in order.
func (s *Stub) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}

// Calls returns the number of queries received so far.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}
