package basestate

import (
	"strings"

	"github.com/mitchellh/hashstructure"
	"k8s.io/apimachinery/pkg/util/sets"
)

// State is a self-consistent configuration snapshot used as a probing
// anchor. Its identifiers are sorted and unique.
type State []string

// NewState returns the State holding the given identifiers.
func NewState(ids ...string) State {
	return State(sets.List(sets.New[string](ids...)))
}

// Key is the canonical string form of the state, the dot-joined
// identifiers the configurator itself uses.
func (s State) Key() string {
	return strings.Join(s, ".")
}

// Contains reports whether the state holds the identifier.
func (s State) Contains(id string) bool {
	// s is sorted, but states are small enough that a scan is fine.
	for _, each := range s {
		if each == id {
			return true
		}
	}
	return false
}

// Fingerprint returns a short stable hash of the state, suitable for
// log fields.
func (s State) Fingerprint() uint64 {
	h, err := hashstructure.Hash([]string(s), nil)
	if err != nil {
		return 0
	}
	return h
}

// replace returns a copy of s with every identifier in members removed
// and chosen added.
func (s State) replace(members []string, chosen string) State {
	next := sets.New[string](s...)
	next.Delete(members...)
	next.Insert(chosen)
	return State(sets.List(next))
}
