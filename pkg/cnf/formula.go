package cnf

import (
	"fmt"
)

// Formula is a Boolean satisfiability instance in conjunctive normal
// form over the variables 1..NumVars. Literals use the DIMACS
// convention: v is the variable, -v its negation.
type Formula struct {
	NumVars int
	Clauses [][]int
}

// Add appends a clause.
func (f *Formula) Add(lits ...int) {
	f.Clauses = append(f.Clauses, append([]int(nil), lits...))
}

// MalformedLiteral is returned by Validate for a literal that is zero
// or names a variable outside the formula.
type MalformedLiteral struct {
	Clause  int
	Literal int
	NumVars int
}

func (e MalformedLiteral) Error() string {
	return fmt.Sprintf("clause %d: literal %d out of range for %d variables", e.Clause, e.Literal, e.NumVars)
}

// Validate reports the first malformed literal of the formula.
func (f *Formula) Validate() error {
	if f.NumVars < 0 {
		return fmt.Errorf("negative variable count %d", f.NumVars)
	}
	for i, c := range f.Clauses {
		for _, l := range c {
			if l == 0 || l > f.NumVars || -l > f.NumVars {
				return MalformedLiteral{Clause: i, Literal: l, NumVars: f.NumVars}
			}
		}
	}
	return nil
}

// With returns a copy of the formula extended by the given clauses.
func (f *Formula) With(clauses ...[]int) *Formula {
	next := &Formula{NumVars: f.NumVars, Clauses: make([][]int, 0, len(f.Clauses)+len(clauses))}
	next.Clauses = append(next.Clauses, f.Clauses...)
	next.Clauses = append(next.Clauses, clauses...)
	return next
}
