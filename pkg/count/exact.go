package count

import (
	"context"
	"math/big"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/configspace/configcount/pkg/cnf"
)

// ErrBudgetExceeded is returned when a count needs more branching
// decisions than its limit allows.
var ErrBudgetExceeded = errors.New("count exceeded its decision budget")

// Exact is a DPLL model counter. It propagates unit clauses, splits
// the remaining clauses into independent components whose counts
// multiply, and caches the count of every component it branches on.
// The cache is kept across calls, so counting a sequence of related
// formulas reuses earlier work.
type Exact struct {
	mu            sync.Mutex
	decisionLimit int
	tracer        Tracer
	cache         map[string]*big.Int
}

var _ Counter = &Exact{}

type Option func(e *Exact)

// WithDecisionLimit bounds the number of branching decisions of a
// single Count. Zero means unbounded.
func WithDecisionLimit(n int) Option {
	return func(e *Exact) {
		e.decisionLimit = n
	}
}

func WithTracer(t Tracer) Option {
	return func(e *Exact) {
		e.tracer = t
	}
}

func NewExact(options ...Option) *Exact {
	e := &Exact{cache: make(map[string]*big.Int)}
	for _, option := range options {
		option(e)
	}
	if e.tracer == nil {
		e.tracer = DefaultTracer{}
	}
	return e
}

// search holds the state of one Count.
type search struct {
	*Exact
	ctx       context.Context
	decisions int
	depth     int
	hits      int
}

var _ SearchPosition = &search{}

func (s *search) Decisions() int { return s.decisions }
func (s *search) Depth() int     { return s.depth }
func (s *search) CacheSize() int { return len(s.cache) }
func (s *search) CacheHits() int { return s.hits }

func (e *Exact) Count(ctx context.Context, f *cnf.Formula) (*big.Int, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cache == nil {
		e.cache = make(map[string]*big.Int)
	}
	if e.tracer == nil {
		e.tracer = DefaultTracer{}
	}

	clauses, ok := normalize(f.Clauses)
	if !ok {
		return new(big.Int), nil
	}
	s := &search{Exact: e, ctx: ctx}
	n, err := s.count(clauses)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(n, pow2(f.NumVars-numVars(clauses))), nil
}

// count returns the number of models of clauses over the variables
// occurring in them. The result may be shared with the cache and must
// not be modified.
func (s *search) count(clauses [][]int) (*big.Int, error) {
	if len(clauses) == 0 {
		return big.NewInt(1), nil
	}
	nv := numVars(clauses)
	reduced, assigned, ok := propagate(clauses)
	if !ok {
		return new(big.Int), nil
	}
	total := pow2(nv - assigned - numVars(reduced))
	for _, component := range components(reduced) {
		n, err := s.component(component)
		if err != nil {
			return nil, err
		}
		if n.Sign() == 0 {
			return new(big.Int), nil
		}
		total.Mul(total, n)
	}
	return total, nil
}

func (s *search) component(clauses [][]int) (*big.Int, error) {
	key := canonical(clauses)
	if n, ok := s.cache[key]; ok {
		s.hits++
		return n, nil
	}

	s.decisions++
	if s.decisionLimit > 0 && s.decisions > s.decisionLimit {
		return nil, errors.Wrapf(ErrBudgetExceeded, "limit %d", s.decisionLimit)
	}
	if err := s.ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "count interrupted")
	}
	s.tracer.Trace(s)

	v := pick(clauses)
	nv := numVars(clauses)
	total := new(big.Int)
	s.depth++
	defer func() { s.depth-- }()
	for _, lit := range []int{v, -v} {
		next, ok := condition(clauses, lit)
		if !ok {
			continue
		}
		n, err := s.count(next)
		if err != nil {
			return nil, err
		}
		if n.Sign() == 0 {
			continue
		}
		total.Add(total, new(big.Int).Mul(n, pow2(nv-1-numVars(next))))
	}
	s.cache[key] = total
	return total, nil
}

// normalize sorts and deduplicates the literals of every clause and
// drops tautologies. It reports false if a clause is empty.
func normalize(clauses [][]int) ([][]int, bool) {
	result := make([][]int, 0, len(clauses))
	for _, c := range clauses {
		if len(c) == 0 {
			return nil, false
		}
		lits := append([]int(nil), c...)
		sort.Ints(lits)
		out := lits[:0]
		tautology := false
		for i, l := range lits {
			if i > 0 && l == lits[i-1] {
				continue
			}
			out = append(out, l)
		}
		seen := make(map[int]bool, len(out))
		for _, l := range out {
			if seen[-l] {
				tautology = true
				break
			}
			seen[l] = true
		}
		if !tautology {
			result = append(result, out)
		}
	}
	return result, true
}

// condition assigns lit true: satisfied clauses are dropped and the
// opposite literal is removed from the rest. It reports false if a
// clause becomes empty. Input clauses are never modified.
func condition(clauses [][]int, lit int) ([][]int, bool) {
	result := make([][]int, 0, len(clauses))
	for _, c := range clauses {
		sat := false
		neg := -1
		for i, l := range c {
			if l == lit {
				sat = true
				break
			}
			if l == -lit {
				neg = i
			}
		}
		if sat {
			continue
		}
		if neg < 0 {
			result = append(result, c)
			continue
		}
		if len(c) == 1 {
			return nil, false
		}
		next := make([]int, 0, len(c)-1)
		next = append(next, c[:neg]...)
		next = append(next, c[neg+1:]...)
		result = append(result, next)
	}
	return result, true
}

// propagate assigns unit clauses until none is left and returns the
// remaining clauses and the number of variables assigned.
func propagate(clauses [][]int) ([][]int, int, bool) {
	assigned := 0
	for {
		unit := 0
		for _, c := range clauses {
			if len(c) == 1 {
				unit = c[0]
				break
			}
		}
		if unit == 0 {
			return clauses, assigned, true
		}
		var ok bool
		if clauses, ok = condition(clauses, unit); !ok {
			return nil, 0, false
		}
		assigned++
	}
}

// components partitions clauses into groups that share no variable.
func components(clauses [][]int) [][][]int {
	parent := make(map[int]int)
	var find func(int) int
	find = func(v int) int {
		p, ok := parent[v]
		if !ok || p == v {
			parent[v] = v
			return v
		}
		root := find(p)
		parent[v] = root
		return root
	}
	for _, c := range clauses {
		a := find(abs(c[0]))
		for _, l := range c[1:] {
			if b := find(abs(l)); a != b {
				parent[b] = a
			}
		}
	}

	index := make(map[int]int)
	var result [][][]int
	for _, c := range clauses {
		root := find(abs(c[0]))
		i, ok := index[root]
		if !ok {
			i = len(result)
			index[root] = i
			result = append(result, nil)
		}
		result[i] = append(result[i], c)
	}
	return result
}

// pick returns the variable occurring most often, the smallest on
// ties.
func pick(clauses [][]int) int {
	occurrences := make(map[int]int)
	best, most := 0, 0
	for _, c := range clauses {
		for _, l := range c {
			v := abs(l)
			occurrences[v]++
			if n := occurrences[v]; n > most || (n == most && v < best) {
				best, most = v, n
			}
		}
	}
	return best
}

func canonical(clauses [][]int) string {
	sorted := append([][]int(nil), clauses...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	buf := make([]byte, 0, 8*len(sorted))
	for _, c := range sorted {
		for _, l := range c {
			buf = strconv.AppendInt(buf, int64(l), 10)
			buf = append(buf, ' ')
		}
		buf = append(buf, '0', ' ')
	}
	return string(buf)
}

func numVars(clauses [][]int) int {
	seen := make(map[int]struct{})
	for _, c := range clauses {
		for _, l := range c {
			seen[abs(l)] = struct{}{}
		}
	}
	return len(seen)
}

func abs(l int) int {
	if l < 0 {
		return -l
	}
	return l
}
