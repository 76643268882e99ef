package rules

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/configspace/configcount/pkg/probe"
)

// Polarity tells whether a rule forces or forbids its consequent.
type Polarity int

const (
	// Requires is o → a.
	Requires Polarity = iota
	// Forbids is o → ¬r.
	Forbids
)

func (p Polarity) String() string {
	switch p {
	case Requires:
		return "requires"
	case Forbids:
		return "forbids"
	}
	return fmt.Sprintf("Polarity(%d)", int(p))
}

func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Polarity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "requires":
		*p = Requires
	case "forbids":
		*p = Forbids
	default:
		return fmt.Errorf("unknown rule polarity %q", string(text))
	}
	return nil
}

// Rule is an implication derived from an observed closure: selecting
// Antecedent forces (Requires) or forbids (Forbids) Consequent.
type Rule struct {
	Antecedent string   `json:"antecedent"`
	Consequent string   `json:"consequent"`
	Polarity   Polarity `json:"polarity"`
}

func (r Rule) String() string {
	if r.Polarity == Forbids {
		return fmt.Sprintf("%s -> !%s", r.Antecedent, r.Consequent)
	}
	return fmt.Sprintf("%s -> %s", r.Antecedent, r.Consequent)
}

func less(a, b Rule) bool {
	if a.Antecedent != b.Antecedent {
		return a.Antecedent < b.Antecedent
	}
	if a.Polarity != b.Polarity {
		return a.Polarity < b.Polarity
	}
	return a.Consequent < b.Consequent
}

// Set is an append-only, deduplicated collection of rules. There is no
// way to remove a rule once added.
type Set struct {
	rules map[Rule]struct{}
}

func NewSet(rules ...Rule) *Set {
	s := &Set{rules: make(map[Rule]struct{}, len(rules))}
	for _, r := range rules {
		s.Add(r)
	}
	return s
}

// Add inserts the rule and reports whether it was new.
func (s *Set) Add(r Rule) bool {
	if s.rules == nil {
		s.rules = make(map[Rule]struct{})
	}
	if _, ok := s.rules[r]; ok {
		return false
	}
	s.rules[r] = struct{}{}
	return true
}

// Merge adds every rule of other and returns the number of new rules.
func (s *Set) Merge(other *Set) int {
	n := 0
	for r := range other.rules {
		if s.Add(r) {
			n++
		}
	}
	return n
}

func (s *Set) Has(r Rule) bool {
	_, ok := s.rules[r]
	return ok
}

func (s *Set) Len() int {
	return len(s.rules)
}

// List returns the rules ordered by antecedent, polarity and
// consequent.
func (s *Set) List() []Rule {
	result := make([]Rule, 0, len(s.rules))
	for r := range s.rules {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

// Diff returns the rules of s missing from prev, in List order. A nil
// prev yields every rule.
func (s *Set) Diff(prev *Set) []Rule {
	var result []Rule
	for _, r := range s.List() {
		if prev == nil || !prev.Has(r) {
			result = append(result, r)
		}
	}
	return result
}

func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var list []Rule
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	for _, r := range list {
		s.Add(r)
	}
	return nil
}

// Aggregate derives the rule set implied by the given probe results.
// Every option the closure added yields a Requires rule and every
// option it removed a Forbids rule. Failed results and rules from an
// option to itself are ignored. The output depends only on the set of
// results, not on their order.
func Aggregate(results ...[]probe.Result) *Set {
	s := NewSet()
	for _, batch := range results {
		for _, r := range batch {
			if r.Failed() || r.Option == "" {
				continue
			}
			for _, a := range r.Added {
				if a != r.Option {
					s.Add(Rule{Antecedent: r.Option, Consequent: a, Polarity: Requires})
				}
			}
			for _, x := range r.Removed {
				if x != r.Option {
					s.Add(Rule{Antecedent: r.Option, Consequent: x, Polarity: Forbids})
				}
			}
		}
	}
	return s
}
