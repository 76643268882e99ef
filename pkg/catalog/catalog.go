package catalog

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Option is a single selectable item of the configurator.
type Option struct {
	ID            string `json:"optionId"`
	Title         string `json:"title,omitempty"`
	Group         string `json:"family,omitempty"`
	EquipmentType string `json:"equipmentType,omitempty"`
	// Default marks standard equipment.
	Default bool `json:"isStandardEquipment"`
	// Selected marks items selected in the captured session.
	Selected bool `json:"isSelected"`
}

// Group is a named set of mutually-related Options.
type Group struct {
	Name    string
	Members []string
}

// Catalog is the static view of every option of one product variant,
// the groups partitioning them and the feasible configurations that
// were observed alongside them.
type Catalog struct {
	options map[string]Option
	ids     []string
	groups  map[string]*Group
	names   []string
	byID    map[string]string

	// Seeds are observed feasible configurations, each sorted.
	Seeds [][]string
}

// Ungrouped is the group of every option without a family. Unlike
// the families, its members are not mutually exclusive.
const Ungrouped = "<none>"

// DuplicateOption is returned by New when two options share an ID.
type DuplicateOption string

func (e DuplicateOption) Error() string {
	return fmt.Sprintf("duplicate option %q in catalog", string(e))
}

// New returns a Catalog over the given options. Options without a
// group share the Ungrouped group.
func New(options []Option, seeds [][]string) (*Catalog, error) {
	c := &Catalog{
		options: make(map[string]Option, len(options)),
		groups:  make(map[string]*Group),
		byID:    make(map[string]string, len(options)),
	}
	for _, o := range options {
		if o.ID == "" {
			return nil, fmt.Errorf("option without identifier (title %q)", o.Title)
		}
		if _, ok := c.options[o.ID]; ok {
			return nil, DuplicateOption(o.ID)
		}
		c.options[o.ID] = o
		c.ids = append(c.ids, o.ID)
	}
	sort.Strings(c.ids)

	for _, id := range c.ids {
		name := groupName(c.options[id])
		g, ok := c.groups[name]
		if !ok {
			g = &Group{Name: name}
			c.groups[name] = g
			c.names = append(c.names, name)
		}
		g.Members = append(g.Members, id)
		c.byID[id] = name
	}
	sort.Strings(c.names)

	for _, seed := range seeds {
		s := sets.New[string](seed...)
		if s.Len() == 0 {
			continue
		}
		c.Seeds = append(c.Seeds, sets.List(s))
	}
	return c, nil
}

func groupName(o Option) string {
	if o.Group != "" {
		return o.Group
	}
	return Ungrouped
}

// Exclusive reports whether at most one member of the group can be
// selected at a time.
func (c *Catalog) Exclusive(group string) bool {
	return group != Ungrouped
}

// IDs returns every option identifier in sorted order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// Option returns the option with the given identifier.
func (c *Catalog) Option(id string) (Option, bool) {
	o, ok := c.options[id]
	return o, ok
}

// Has reports whether the catalog knows the given identifier.
func (c *Catalog) Has(id string) bool {
	_, ok := c.options[id]
	return ok
}

// Len returns the number of options.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// Groups returns all groups sorted by name.
func (c *Catalog) Groups() []Group {
	result := make([]Group, 0, len(c.names))
	for _, name := range c.names {
		g := c.groups[name]
		result = append(result, Group{Name: g.Name, Members: append([]string(nil), g.Members...)})
	}
	return result
}

// GroupOf returns the name of the group containing the option.
func (c *Catalog) GroupOf(id string) (string, bool) {
	name, ok := c.byID[id]
	return name, ok
}

// Members returns the members of the named group, sorted.
func (c *Catalog) Members(group string) []string {
	g, ok := c.groups[group]
	if !ok {
		return nil
	}
	return append([]string(nil), g.Members...)
}
