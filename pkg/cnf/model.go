package cnf

import (
	"fmt"

	"github.com/sirupsen/logrus"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/configspace/configcount/pkg/catalog"
	"github.com/configspace/configcount/pkg/rules"
)

// Stats describes how a Model was assembled.
type Stats struct {
	Vars       int `json:"vars"`
	Clauses    int `json:"clauses"`
	Prohibited int `json:"prohibited"`
	Pinned     int `json:"pinned"`
	AtMostOne  int `json:"atMostOneClauses"`
	AtLeastOne int `json:"atLeastOneClauses"`
	Rules      int `json:"ruleClauses"`
	// SkippedRules counts rules touching an excluded or prohibited
	// option.
	SkippedRules int `json:"skippedRules"`
	// EmptyRequiredGroups lists required groups left with no usable
	// member, which emit no clause.
	EmptyRequiredGroups []string `json:"emptyRequiredGroups,omitempty"`
}

// Model is the CNF encoding of a universe and a rule set.
type Model struct {
	Formula Formula
	// VarMap maps every countable option to its variable.
	VarMap map[string]int
	// Variables lists options by variable: Variables[v-1] is the
	// option of variable v.
	Variables      []string
	RequiredGroups []string
	Constraints    []AppliedConstraint
	Stats          Stats
}

// Option returns the option of variable v.
func (m *Model) Option(v int) (string, bool) {
	if v < 1 || v > len(m.Variables) {
		return "", false
	}
	return m.Variables[v-1], true
}

// UnknownOption is a rule reference to an option absent from the
// catalog.
type UnknownOption struct {
	Rule   rules.Rule
	Option string
}

func (e UnknownOption) Error() string {
	return fmt.Sprintf("rule %s references unknown option %q", e.Rule, e.Option)
}

// InconsistentModel lists every problem that prevented a model from
// being built.
type InconsistentModel []error

func (e InconsistentModel) Error() string {
	return "inconsistent model: " + utilerrors.NewAggregate(e).Error()
}

// Builder translates a universe and a rule set into a Model. It only
// translates: the result may well be unsatisfiable.
type Builder struct {
	Universe *catalog.Universe
	Logger   logrus.FieldLogger
}

// Build returns the model for the rule set. Clauses are emitted in a
// fixed order: pins by variable, then pairwise at-most-one by
// exclusive group, then at-least-one by required group, then one clause per rule in
// rule order. Identical inputs always yield an identical model.
func (b Builder) Build(rs *rules.Set) (*Model, error) {
	logger := b.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	u := b.Universe

	m := &Model{
		VarMap:         make(map[string]int),
		Variables:      u.Variables(),
		RequiredGroups: u.RequiredGroups(),
	}
	for i, id := range m.Variables {
		m.VarMap[id] = i + 1
	}
	m.Formula.NumVars = len(m.Variables)

	x := &constrainer{vars: m.VarMap}
	emit := func(subject string, c Constraint) int {
		before := len(x.clauses)
		c.apply(x, Identifier(subject))
		m.Constraints = append(m.Constraints, AppliedConstraint{Subject: Identifier(subject), Constraint: c})
		return len(x.clauses) - before
	}

	for _, id := range m.Variables {
		switch {
		case u.Prohibited(id):
			m.Stats.Prohibited += emit(id, Prohibited())
		case u.PinnedTrue(id):
			m.Stats.Pinned += emit(id, Mandatory())
		}
	}

	for _, g := range u.Groups() {
		members := u.Members(g.Name)
		if len(members) < 2 || !u.Exclusive(g.Name) {
			continue
		}
		m.Stats.AtMostOne += emit(g.Name, AtMostOne(identifiers(members)...))
	}

	for _, name := range m.RequiredGroups {
		members := u.Members(name)
		if len(members) == 0 {
			logger.WithField("group", name).Warn("required group has no usable member")
			m.Stats.EmptyRequiredGroups = append(m.Stats.EmptyRequiredGroups, name)
			continue
		}
		m.Stats.AtLeastOne += emit(name, AtLeastOne(identifiers(members)...))
	}

	var errs InconsistentModel
	for _, r := range rs.List() {
		bad := false
		for _, id := range []string{r.Antecedent, r.Consequent} {
			if !u.Has(id) {
				errs = append(errs, UnknownOption{Rule: r, Option: id})
				bad = true
			}
		}
		if bad {
			continue
		}
		if !usable(u, r.Antecedent) || !usable(u, r.Consequent) {
			m.Stats.SkippedRules++
			continue
		}
		var c Constraint
		if r.Polarity == rules.Forbids {
			c = Forbids(Identifier(r.Consequent))
		} else {
			c = Requires(Identifier(r.Consequent))
		}
		m.Stats.Rules += emit(r.Antecedent, c)
	}
	errs = append(errs, x.errs...)
	if len(errs) > 0 {
		return nil, errs
	}

	m.Formula.Clauses = x.clauses
	m.Stats.Vars = m.Formula.NumVars
	m.Stats.Clauses = len(m.Formula.Clauses)
	logger.WithFields(logrus.Fields{
		"vars":         m.Stats.Vars,
		"clauses":      m.Stats.Clauses,
		"rules":        m.Stats.Rules,
		"skippedRules": m.Stats.SkippedRules,
	}).Info("built model")
	return m, nil
}

func usable(u *catalog.Universe, id string) bool {
	return u.Countable(id) && !u.Prohibited(id)
}

func identifiers(ids []string) []Identifier {
	result := make([]Identifier, len(ids))
	for i, id := range ids {
		result[i] = Identifier(id)
	}
	return result
}
