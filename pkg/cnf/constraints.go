package cnf

import (
	"fmt"
	"strings"
)

// Identifier names an option, or a group for group constraints.
type Identifier string

// constrainer accumulates the clauses produced by applying
// constraints, translating identifiers through the variable map.
type constrainer struct {
	vars    map[string]int
	clauses [][]int
	errs    []error
}

func (x *constrainer) lit(id Identifier) (int, bool) {
	v, ok := x.vars[string(id)]
	if !ok {
		x.errs = append(x.errs, fmt.Errorf("%q has no variable", id))
	}
	return v, ok
}

// literal is an identifier that is asserted, or negated.
type literal struct {
	id      Identifier
	negated bool
}

func pos(id Identifier) literal { return literal{id: id} }
func neg(id Identifier) literal { return literal{id: id, negated: true} }

// clause adds one clause holding the literals in the order given.
func (x *constrainer) clause(lits ...literal) {
	c := make([]int, 0, len(lits))
	for _, l := range lits {
		v, ok := x.lit(l.id)
		if !ok {
			return
		}
		if l.negated {
			v = -v
		}
		c = append(c, v)
	}
	x.clauses = append(x.clauses, c)
}

// Constraint implementations restrict the assignments under which a
// subject may be selected. The subject is an option, except for group
// constraints where it is the group name.
type Constraint interface {
	String(subject Identifier) string
	apply(x *constrainer, subject Identifier)
}

// AppliedConstraint values compose a single Constraint with its
// subject.
type AppliedConstraint struct {
	Subject    Identifier
	Constraint Constraint
}

// String implements fmt.Stringer and returns a human-readable message
// representing the receiver.
func (a AppliedConstraint) String() string {
	return a.Constraint.String(a.Subject)
}

type mandatory struct{}

func (c mandatory) String(subject Identifier) string {
	return fmt.Sprintf("%s is mandatory", subject)
}

func (c mandatory) apply(x *constrainer, subject Identifier) {
	x.clause(pos(subject))
}

// Mandatory returns a Constraint that permits only assignments that
// select the subject.
func Mandatory() Constraint {
	return mandatory{}
}

type prohibited struct{}

func (c prohibited) String(subject Identifier) string {
	return fmt.Sprintf("%s is prohibited", subject)
}

func (c prohibited) apply(x *constrainer, subject Identifier) {
	x.clause(neg(subject))
}

// Prohibited returns a Constraint that rejects every assignment
// selecting the subject.
func Prohibited() Constraint {
	return prohibited{}
}

type requires Identifier

func (c requires) String(subject Identifier) string {
	return fmt.Sprintf("%s requires %s", subject, Identifier(c))
}

func (c requires) apply(x *constrainer, subject Identifier) {
	x.clause(neg(subject), pos(Identifier(c)))
}

// Requires returns a Constraint that only permits the subject to be
// selected together with the given option.
func Requires(id Identifier) Constraint {
	return requires(id)
}

type forbids Identifier

func (c forbids) String(subject Identifier) string {
	return fmt.Sprintf("%s forbids %s", subject, Identifier(c))
}

func (c forbids) apply(x *constrainer, subject Identifier) {
	x.clause(neg(subject), neg(Identifier(c)))
}

// Forbids returns a Constraint that permits the subject or the given
// option, or neither, but not both.
func Forbids(id Identifier) Constraint {
	return forbids(id)
}

type atMostOne []Identifier

func (c atMostOne) String(subject Identifier) string {
	return fmt.Sprintf("%s permits at most one of %s", subject, join(c))
}

// apply emits the pairwise encoding: one binary clause per pair of
// members.
func (c atMostOne) apply(x *constrainer, subject Identifier) {
	for i := 0; i < len(c); i++ {
		for j := i + 1; j < len(c); j++ {
			x.clause(neg(c[i]), neg(c[j]))
		}
	}
}

// AtMostOne returns a group Constraint that permits at most one of
// the given members to be selected.
func AtMostOne(ids ...Identifier) Constraint {
	return atMostOne(ids)
}

type atLeastOne []Identifier

func (c atLeastOne) String(subject Identifier) string {
	return fmt.Sprintf("%s requires at least one of %s", subject, join(c))
}

func (c atLeastOne) apply(x *constrainer, subject Identifier) {
	if len(c) == 0 {
		return
	}
	lits := make([]literal, len(c))
	for i, id := range c {
		lits[i] = pos(id)
	}
	x.clause(lits...)
}

// AtLeastOne returns a group Constraint that permits only assignments
// selecting at least one of the given members.
func AtLeastOne(ids ...Identifier) Constraint {
	return atLeastOne(ids)
}

func join(ids []Identifier) string {
	s := make([]string, len(ids))
	for i, each := range ids {
		s[i] = string(each)
	}
	return strings.Join(s, ", ")
}
