package basestate

import (
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/configspace/configcount/pkg/catalog"
)

// DefaultRepresentatives is the number of representative options
// drawn from each required group when none is configured.
const DefaultRepresentatives = 3

// Generator produces base states that combine representatives of the
// required groups pairwise, so that rules which only trigger under
// specific co-occurring selections get a chance to surface.
type Generator struct {
	Universe *catalog.Universe
	// Representatives is the number of options drawn from each
	// required group.
	Representatives int
}

// Generate returns the seed states followed by at most n generated
// states. Seeds are included verbatim and do not count toward n. The
// output depends only on the universe, the seeds, n and the number of
// representatives, and the states generated for n are a prefix of the
// ones generated for any larger budget.
func (g Generator) Generate(n int) []State {
	seen := sets.New[string]()
	var result []State
	for _, seed := range g.Universe.Seeds {
		s := NewState(seed...)
		if seen.Has(s.Key()) {
			continue
		}
		seen.Insert(s.Key())
		result = append(result, s)
	}

	generated := 0
	add := func(s State) bool {
		if generated >= n {
			return false
		}
		if !seen.Has(s.Key()) {
			seen.Insert(s.Key())
			result = append(result, s)
			generated++
		}
		return generated < n
	}

	groups, reps := g.representatives()
	base := g.defaultState(groups)
	if !add(base) {
		return result
	}

	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			fa, fb := groups[i], groups[j]
			for _, ra := range reps[fa] {
				for _, rb := range reps[fb] {
					s := base.replace(g.Universe.Members(fa), ra).replace(g.Universe.Members(fb), rb)
					if !add(s) {
						return result
					}
				}
			}
		}
	}

	for _, f := range groups {
		for _, r := range reps[f] {
			if !add(base.replace(g.Universe.Members(f), r)) {
				return result
			}
		}
	}
	return result
}

// representatives returns the required groups that have at least one
// usable member, in name order, with up to K representatives each.
// Selected members come first, then standard equipment, then the
// remaining members by descending identifier.
func (g Generator) representatives() ([]string, map[string][]string) {
	k := g.Representatives
	if k <= 0 {
		k = DefaultRepresentatives
	}
	var groups []string
	reps := make(map[string][]string)
	for _, name := range g.Universe.RequiredGroups() {
		members := g.Universe.Members(name)
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			a, _ := g.Universe.Option(members[i])
			b, _ := g.Universe.Option(members[j])
			if a.Selected != b.Selected {
				return a.Selected
			}
			if a.Default != b.Default {
				return a.Default
			}
			return a.ID > b.ID
		})
		if len(members) > k {
			members = members[:k]
		}
		groups = append(groups, name)
		reps[name] = members
	}
	return groups, reps
}

// defaultState starts from the longest seed and adds the first member
// of every required group the seed leaves unrepresented.
func (g Generator) defaultState(groups []string) State {
	var longest []string
	for _, seed := range g.Universe.Seeds {
		if len(seed) > len(longest) {
			longest = seed
		}
	}
	state := sets.New[string](longest...)
	for _, name := range groups {
		members := g.Universe.Members(name)
		if !state.HasAny(members...) {
			state.Insert(members[0])
		}
	}
	return State(sets.List(state))
}
