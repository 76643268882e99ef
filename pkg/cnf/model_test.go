package cnf

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configspace/configcount/pkg/catalog"
	"github.com/configspace/configcount/pkg/rules"
)

func options() []catalog.Option {
	return []catalog.Option{
		{ID: "o"},
		{ID: "x", Group: "G", Default: true},
		{ID: "y", Group: "G"},
		{ID: "z", Group: "G"},
		{ID: "P", Group: "G"},
		{ID: "S", Group: "STD", Default: true},
		{ID: "E", Group: "ACC", EquipmentType: "tequipment"},
	}
}

func build(t *testing.T, opts []catalog.Option, rs *rules.Set) (*Model, error) {
	t.Helper()
	c, err := catalog.New(opts, nil)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	b := Builder{
		Universe: c.Universe(catalog.Filter{ExcludedTypes: []string{"tequipment"}, Prohibited: []string{"P"}}),
		Logger:   logger,
	}
	return b.Build(rs)
}

func TestBuildEncoding(t *testing.T) {
	m, err := build(t, options(), rules.NewSet(
		rules.Rule{Antecedent: "o", Consequent: "y", Polarity: rules.Requires},
		rules.Rule{Antecedent: "o", Consequent: "z", Polarity: rules.Forbids},
	))
	require.NoError(t, err)

	// Variables in identifier order; E is excluded.
	assert.Equal(t, []string{"P", "S", "o", "x", "y", "z"}, m.Variables)
	assert.Equal(t, map[string]int{"P": 1, "S": 2, "o": 3, "x": 4, "y": 5, "z": 6}, m.VarMap)
	assert.Equal(t, []string{"G", "STD"}, m.RequiredGroups)

	want := [][]int{
		// P prohibited, S the only member of its family
		{-1},
		{2},
		// G at most one, P left out
		{-4, -5}, {-4, -6}, {-5, -6},
		// G and STD at least one
		{4, 5, 6},
		{2},
		// o requires y, o forbids z
		{-3, 5},
		{-3, -6},
	}
	if diff := cmp.Diff(want, m.Formula.Clauses); diff != "" {
		t.Errorf("unexpected clauses (-want +got):\n%s", diff)
	}
	assert.Equal(t, Stats{
		Vars: 6, Clauses: 9, Prohibited: 1, Pinned: 1, AtMostOne: 3, AtLeastOne: 2, Rules: 2,
	}, m.Stats)

	name, ok := m.Option(4)
	assert.True(t, ok)
	assert.Equal(t, "x", name)
	_, ok = m.Option(7)
	assert.False(t, ok)

	var applied []string
	for _, c := range m.Constraints {
		applied = append(applied, c.String())
	}
	assert.Equal(t, []string{
		"P is prohibited",
		"S is mandatory",
		"G permits at most one of x, y, z",
		"G requires at least one of x, y, z",
		"STD requires at least one of S",
		"o requires y",
		"o forbids z",
	}, applied)
}

func TestBuildUngrouped(t *testing.T) {
	m, err := build(t, []catalog.Option{
		{ID: "A", Default: true},
		{ID: "B", Default: true},
		{ID: "C"},
		{ID: "D", Group: "SOLO", Default: true},
	}, rules.NewSet())
	require.NoError(t, err)

	// Family-less options form one required group without an
	// at-most-one constraint, and none of them is pinned.
	assert.Equal(t, []string{catalog.Ungrouped, "SOLO"}, m.RequiredGroups)
	assert.Equal(t, [][]int{{4}, {1, 2, 3}, {4}}, m.Formula.Clauses)
	assert.Equal(t, 1, m.Stats.Pinned)
	assert.Zero(t, m.Stats.AtMostOne)
}

func TestBuildSkipsUnusableRules(t *testing.T) {
	m, err := build(t, options(), rules.NewSet(
		rules.Rule{Antecedent: "o", Consequent: "E", Polarity: rules.Requires},
		rules.Rule{Antecedent: "P", Consequent: "o", Polarity: rules.Requires},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Stats.SkippedRules)
	assert.Zero(t, m.Stats.Rules)
}

func TestBuildUnknownOption(t *testing.T) {
	_, err := build(t, options(), rules.NewSet(
		rules.Rule{Antecedent: "o", Consequent: "nope", Polarity: rules.Requires},
		rules.Rule{Antecedent: "gone", Consequent: "x", Polarity: rules.Forbids},
	))
	require.Error(t, err)

	var inconsistent InconsistentModel
	require.True(t, errors.As(err, &inconsistent))
	assert.Len(t, inconsistent, 2)
	assert.Contains(t, err.Error(), `unknown option "nope"`)
	assert.Contains(t, err.Error(), `unknown option "gone"`)
}

func TestBuildIsDeterministic(t *testing.T) {
	rs := []rules.Rule{
		{Antecedent: "o", Consequent: "y", Polarity: rules.Requires},
		{Antecedent: "x", Consequent: "o", Polarity: rules.Forbids},
		{Antecedent: "z", Consequent: "S", Polarity: rules.Requires},
	}
	a, err := build(t, options(), rules.NewSet(rs...))
	require.NoError(t, err)

	opts := options()
	for i, j := 0, len(opts)-1; i < j; i, j = i+1, j-1 {
		opts[i], opts[j] = opts[j], opts[i]
	}
	b, err := build(t, opts, rules.NewSet(rs[2], rs[0], rs[1]))
	require.NoError(t, err)

	assert.Equal(t, a.VarMap, b.VarMap)
	if diff := cmp.Diff(a.Formula, b.Formula); diff != "" {
		t.Errorf("formulas differ (-a +b):\n%s", diff)
	}
}

func TestBuildEmptyRequiredGroup(t *testing.T) {
	m, err := build(t, []catalog.Option{
		{ID: "P", Group: "PAINT", Selected: true},
		{ID: "a"},
	}, rules.NewSet())
	require.NoError(t, err)
	assert.Equal(t, []string{"PAINT"}, m.Stats.EmptyRequiredGroups)
	assert.Equal(t, [][]int{{-1}}, m.Formula.Clauses)
}

func TestDimacs(t *testing.T) {
	f := &Formula{NumVars: 4}
	f.Add(-1)
	f.Add(2, -3)
	f.Add(1, 2, 4)

	var buf bytes.Buffer
	require.NoError(t, WriteDimacs(&buf, f))
	assert.Equal(t, "p cnf 4 3\n-1 0\n2 -3 0\n1 2 4 0\n", buf.String())

	read, err := ReadDimacs(strings.NewReader("c a comment\n" + buf.String()))
	require.NoError(t, err)
	assert.Equal(t, f, read)
}

func TestReadDimacsErrors(t *testing.T) {
	for _, tt := range []struct {
		Name  string
		Input string
	}{
		{Name: "no problem line", Input: "1 2 0\n"},
		{Name: "literal out of range", Input: "p cnf 2 1\n1 3 0\n"},
		{Name: "not a number", Input: "p cnf 2 1\n1 x 0\n"},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := ReadDimacs(strings.NewReader(tt.Input))
			assert.Error(t, err)
		})
	}
}

func TestSatisfiable(t *testing.T) {
	f := &Formula{NumVars: 2}
	f.Add(1, 2)
	f.Add(-1)
	sat, err := Satisfiable(f)
	require.NoError(t, err)
	assert.True(t, sat)

	sat, err = Satisfiable(f.With([]int{-2}))
	require.NoError(t, err)
	assert.False(t, sat)

	_, err = Satisfiable(&Formula{NumVars: 1, Clauses: [][]int{{0}}})
	var malformed MalformedLiteral
	assert.True(t, errors.As(err, &malformed))
}
