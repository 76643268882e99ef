package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const optionTable = `optionId,title,optionType,family,isStandardEquipment,isSelected,equipmentType
1H,Base,x,BODY,True,True,
2H,Coupe,x,BODY,False,False,
AX,Radio,x,,True,False,
CH1,Charger,x,CHG,False,False,tequipment
PTS,Paint to sample,x,PAINT,False,False,
A1,Black,x,PAINT,False,True,
A2,White,x,PAINT,False,False,
`

func loadTable(t *testing.T) *Catalog {
	t.Helper()
	options, err := ReadOptions(strings.NewReader(optionTable))
	require.NoError(t, err)
	c, err := New(options, [][]string{{"A1", "1H", "1H"}, {}})
	require.NoError(t, err)
	return c
}

func TestReadOptions(t *testing.T) {
	options, err := ReadOptions(strings.NewReader(optionTable))
	require.NoError(t, err)
	require.Len(t, options, 7)
	assert.Equal(t, Option{ID: "1H", Title: "Base", Group: "BODY", Default: true, Selected: true}, options[0])
	assert.Equal(t, "tequipment", options[3].EquipmentType)
}

func TestReadOptionsRequiresIdentifierColumn(t *testing.T) {
	_, err := ReadOptions(strings.NewReader("title,family\nx,y\n"))
	assert.Error(t, err)
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Option{{ID: "a"}, {ID: "a"}}, nil)
	assert.Equal(t, DuplicateOption("a"), err)
}

func TestGroups(t *testing.T) {
	c := loadTable(t)

	var names []string
	for _, g := range c.Groups() {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{Ungrouped, "BODY", "CHG", "PAINT"}, names)
	assert.Equal(t, []string{"A1", "A2", "PTS"}, c.Members("PAINT"))

	group, ok := c.GroupOf("AX")
	assert.True(t, ok)
	assert.Equal(t, Ungrouped, group)
	assert.False(t, c.Exclusive(Ungrouped))
	assert.True(t, c.Exclusive("PAINT"))
	assert.Equal(t, [][]string{{"1H", "A1"}}, c.Seeds)
}

func TestUniverse(t *testing.T) {
	u := loadTable(t).Universe(Filter{
		ExcludedTypes: []string{"tequipment"},
		Prohibited:    []string{"PTS"},
	})

	assert.Equal(t, []string{"1H", "2H", "A1", "A2", "AX", "PTS"}, u.Variables())
	assert.True(t, u.Excluded("CH1"))
	assert.False(t, u.Countable("CH1"))
	assert.False(t, u.Excluded("missing"))
	assert.True(t, u.Prohibited("PTS"))
	assert.Equal(t, []string{"A1", "A2"}, u.Members("PAINT"))

	assert.True(t, u.PinnedTrue("AX"), "sole default member is pinned")
	assert.False(t, u.PinnedTrue("1H"), "default with alternatives is replaceable")

	assert.Equal(t, []string{Ungrouped, "BODY", "PAINT"}, u.RequiredGroups())
	assert.Equal(t, []string{"1H", "2H", "A1", "A2"}, u.Candidates())
}

func TestUngroupedShareOneGroup(t *testing.T) {
	c, err := New([]Option{
		{ID: "A", Default: true},
		{ID: "B", Default: true},
		{ID: "C"},
	}, nil)
	require.NoError(t, err)
	u := c.Universe(Filter{})

	assert.Equal(t, []string{"A", "B", "C"}, c.Members(Ungrouped))
	assert.Equal(t, []string{Ungrouped}, u.RequiredGroups())
	// Defaults among other family-less options are not pinned.
	assert.False(t, u.PinnedTrue("A"))
	assert.False(t, u.PinnedTrue("B"))
	assert.Equal(t, []string{"A", "B", "C"}, u.Candidates())
}
