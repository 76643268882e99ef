package basestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configspace/configcount/pkg/catalog"
)

func universe(t *testing.T, seeds ...[]string) *catalog.Universe {
	t.Helper()
	c, err := catalog.New([]catalog.Option{
		{ID: "b1", Group: "BODY", Default: true},
		{ID: "b2", Group: "BODY"},
		{ID: "b3", Group: "BODY"},
		{ID: "p1", Group: "PAINT", Selected: true},
		{ID: "p2", Group: "PAINT"},
		{ID: "w1", Group: "WHEEL", Default: true},
		{ID: "w2", Group: "WHEEL"},
		{ID: "x1", Group: "EXTRA"},
		{ID: "x2", Group: "EXTRA"},
	}, seeds)
	require.NoError(t, err)
	return c.Universe(catalog.Filter{})
}

func TestGenerateCoversPairs(t *testing.T) {
	g := Generator{Universe: universe(t), Representatives: 2}
	states := g.Generate(100)

	// BODY reps b1,b3; PAINT reps p1,p2; WHEEL reps w1,w2. Every pair
	// of representatives from distinct required groups appears in some
	// state.
	reps := map[string][]string{
		"BODY":  {"b1", "b3"},
		"PAINT": {"p1", "p2"},
		"WHEEL": {"w1", "w2"},
	}
	for fa, ra := range reps {
		for fb, rb := range reps {
			if fa >= fb {
				continue
			}
			for _, a := range ra {
				for _, b := range rb {
					found := false
					for _, s := range states {
						if s.Contains(a) && s.Contains(b) {
							found = true
							break
						}
					}
					assert.True(t, found, "pair %s/%s not covered", a, b)
				}
			}
		}
	}

	for _, s := range states {
		assert.False(t, s.Contains("x1") || s.Contains("x2"), "optional groups are not filled in")
	}
}

func TestGenerateDefaultStateFirst(t *testing.T) {
	g := Generator{Universe: universe(t)}
	states := g.Generate(1)
	require.Len(t, states, 1)
	assert.Equal(t, NewState("b1", "p1", "w1"), states[0])
}

func TestGenerateSeedsAreExtra(t *testing.T) {
	seed := []string{"b2", "p2", "w2", "x1"}
	g := Generator{Universe: universe(t, seed, seed)}
	states := g.Generate(3)
	require.Len(t, states, 4)
	assert.Equal(t, NewState(seed...), states[0])
	// The default state extends the longest seed, which already covers
	// every required group, so the first generated state is a pair
	// variation of it.
	assert.Equal(t, NewState("b1", "p1", "w2", "x1"), states[1])
}

func TestGenerateIsPrefixStable(t *testing.T) {
	g := Generator{Universe: universe(t, []string{"b2", "p1"})}
	small := g.Generate(4)
	large := g.Generate(10)
	require.True(t, len(large) >= len(small))
	assert.Equal(t, small, large[:len(small)])
	assert.Equal(t, large, g.Generate(10))
}

func TestGenerateStopsWhenExhausted(t *testing.T) {
	g := Generator{Universe: universe(t), Representatives: 1}
	// One representative per group leaves a single distinct state.
	assert.Len(t, g.Generate(50), 1)
}

func TestStateKey(t *testing.T) {
	s := NewState("b", "a", "b")
	assert.Equal(t, "a.b", s.Key())
	assert.Equal(t, s.Fingerprint(), NewState("a", "b").Fingerprint())
}

func TestGenerateVariesUngrouped(t *testing.T) {
	c, err := catalog.New([]catalog.Option{
		{ID: "b1", Group: "BODY", Default: true},
		{ID: "b2", Group: "BODY"},
		{ID: "u1", Default: true},
		{ID: "u2"},
	}, nil)
	require.NoError(t, err)
	g := Generator{Universe: c.Universe(catalog.Filter{}), Representatives: 2}

	// The family-less options form one required group whose
	// representatives replace each other like any family's.
	assert.Equal(t, []State{
		NewState("b1", "u1"),
		NewState("b2", "u1"),
		NewState("b1", "u2"),
		NewState("b2", "u2"),
	}, g.Generate(10))
}
