package catalog

import (
	"k8s.io/apimachinery/pkg/util/sets"
)

// Filter names the options removed from, or pinned false in, the
// modeled variable universe.
type Filter struct {
	// ExcludedTypes lists equipment types that never become
	// variables (accessory-only items, for instance).
	ExcludedTypes []string `json:"equipmentTypes,omitempty" yaml:"equipmentTypes,omitempty"`
	// Excluded lists individual options that never become variables.
	Excluded []string `json:"options,omitempty" yaml:"options,omitempty"`
	// Prohibited lists options that keep a variable which is forced
	// false and that take part in no group or rule constraint.
	Prohibited []string `json:"prohibited,omitempty" yaml:"prohibited,omitempty"`
}

// Universe is a Catalog seen through a Filter. It answers the
// questions every pipeline stage shares: which options are variables,
// which are pinned, which can be probed and which groups are required.
type Universe struct {
	*Catalog

	types      sets.Set[string]
	excluded   sets.Set[string]
	prohibited sets.Set[string]
}

// Universe returns the catalog restricted by the given filter.
func (c *Catalog) Universe(f Filter) *Universe {
	return &Universe{
		Catalog:    c,
		types:      sets.New[string](f.ExcludedTypes...),
		excluded:   sets.New[string](f.Excluded...),
		prohibited: sets.New[string](f.Prohibited...),
	}
}

// Countable reports whether the option is part of the variable
// universe.
func (u *Universe) Countable(id string) bool {
	o, ok := u.options[id]
	if !ok {
		return false
	}
	return !u.excluded.Has(id) && !u.types.Has(o.EquipmentType)
}

// Excluded reports whether a catalog option was removed from the
// variable universe.
func (u *Universe) Excluded(id string) bool {
	return u.Has(id) && !u.Countable(id)
}

// Prohibited reports whether the option is a countable option that is
// pinned false.
func (u *Universe) Prohibited(id string) bool {
	return u.Countable(id) && u.prohibited.Has(id)
}

// Variables returns the countable options in identifier order. This
// order defines the variable numbering of every model built from the
// universe.
func (u *Universe) Variables() []string {
	var result []string
	for _, id := range u.ids {
		if u.Countable(id) {
			result = append(result, id)
		}
	}
	return result
}

// countableMembers returns the countable members of a group,
// prohibited ones included.
func (u *Universe) countableMembers(group string) []string {
	var result []string
	for _, id := range u.Catalog.Members(group) {
		if u.Countable(id) {
			result = append(result, id)
		}
	}
	return result
}

// Members returns the countable, non-prohibited members of the group.
func (u *Universe) Members(group string) []string {
	var result []string
	for _, id := range u.countableMembers(group) {
		if !u.prohibited.Has(id) {
			result = append(result, id)
		}
	}
	return result
}

// PinnedTrue reports whether the option is standard equipment and
// the only countable member of its group. Defaults in larger groups
// are replaceable and are never pinned.
func (u *Universe) PinnedTrue(id string) bool {
	if !u.Countable(id) || u.prohibited.Has(id) {
		return false
	}
	if !u.options[id].Default {
		return false
	}
	return len(u.countableMembers(u.byID[id])) <= 1
}

// Required reports whether at least one member of the group must be
// selected.
func (u *Universe) Required(group string) bool {
	for _, id := range u.countableMembers(group) {
		if o := u.options[id]; o.Default || o.Selected {
			return true
		}
	}
	return false
}

// RequiredGroups returns the names of every required group, sorted.
func (u *Universe) RequiredGroups() []string {
	var result []string
	for _, name := range u.names {
		if u.Required(name) {
			result = append(result, name)
		}
	}
	return result
}

// Candidates returns the options worth probing from any state: the
// countable options that are neither prohibited nor pinned true.
func (u *Universe) Candidates() []string {
	var result []string
	for _, id := range u.Variables() {
		if u.prohibited.Has(id) || u.PinnedTrue(id) {
			continue
		}
		result = append(result, id)
	}
	return result
}
