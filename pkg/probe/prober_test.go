package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/catalog"
	"github.com/configspace/configcount/pkg/oracle"
	"github.com/configspace/configcount/pkg/oracle/oraclefakes"
	"github.com/configspace/configcount/pkg/oracle/oracletest"
)

func universe(t *testing.T) *catalog.Universe {
	t.Helper()
	c, err := catalog.New([]catalog.Option{
		{ID: "1H", Group: "BODY", Default: true},
		{ID: "2H", Group: "BODY"},
		{ID: "AX", Default: true},
		{ID: "CH1", Group: "CHG", EquipmentType: "tequipment"},
		{ID: "PTS", Group: "PAINT"},
		{ID: "A1", Group: "PAINT", Selected: true},
		{ID: "A2", Group: "PAINT"},
	}, nil)
	require.NoError(t, err)
	return c.Universe(catalog.Filter{
		ExcludedTypes: []string{"tequipment"},
		Prohibited:    []string{"PTS"},
	})
}

func TestProbeSkipsOptionsInState(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fake := &oraclefakes.FakeOracle{}
	p := NewProber(universe(t), fake, NewMemoryCache(), logger)

	state := basestate.NewState("1H", "A1", "AX")
	pass, err := p.Probe(context.Background(), []basestate.State{state})
	require.NoError(t, err)

	assert.Equal(t, 2, fake.QueryCallCount())
	for i := 0; i < fake.QueryCallCount(); i++ {
		_, s, option := fake.QueryArgsForCall(i)
		assert.Equal(t, state, s)
		assert.False(t, state.Contains(option), "queried %s which is already selected", option)
	}
	assert.Equal(t, []string{"2H", "A2"}, p.Candidates(state))
	assert.Equal(t, 2, pass.Queried)
	assert.Equal(t, 2, pass.Pairs())
}

func TestProbeReusesCache(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fake := &oraclefakes.FakeOracle{}
	fake.QueryReturns(oracle.Closure{Added: []string{"AX"}, Removed: []string{"1H"}}, nil)
	cache := NewMemoryCache()
	states := []basestate.State{basestate.NewState("1H", "A1")}

	first, err := NewProber(universe(t), fake, cache, logger).Probe(context.Background(), states)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Queried)

	// A later run at a larger budget only pays for new pairs.
	states = append(states, basestate.NewState("2H", "A1"))
	second, err := NewProber(universe(t), fake, cache, logger).Probe(context.Background(), states)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Cached)
	assert.Equal(t, 2, second.Queried)
	assert.Equal(t, 4, fake.QueryCallCount())
	assert.Equal(t, first.Results, second.Results[:2])

	n, err := cache.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestProbeFailureIsSkipped(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fake := &oraclefakes.FakeOracle{}
	fake.QueryCalls(func(_ context.Context, _ basestate.State, option string) (oracle.Closure, error) {
		if option == "2H" {
			return oracle.Closure{}, errors.New("timeout")
		}
		return oracle.Closure{}, nil
	})
	cache := NewMemoryCache()
	states := []basestate.State{basestate.NewState("1H", "A1")}

	p := NewProber(universe(t), fake, cache, logger)
	pass, err := p.Probe(context.Background(), states)
	require.NoError(t, err)
	assert.Equal(t, 1, pass.Failed)
	require.Len(t, pass.Results, 2)
	assert.True(t, pass.Results[0].Failed())
	assert.Equal(t, "timeout", pass.Results[0].Error)

	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Level == logrus.WarnLevel
	}
	assert.True(t, warned)

	failures, err := cache.Failures()
	require.NoError(t, err)
	assert.Len(t, failures, 1)
	n, err := cache.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Not retried within the same run.
	again, err := p.Probe(context.Background(), states)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Queried)
	assert.Equal(t, 1, again.Skipped)

	// Retried by the next run.
	retry, err := NewProber(universe(t), fake, cache, logger).Probe(context.Background(), states)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Queried)
	assert.Equal(t, 3, fake.QueryCallCount())
}

func TestProbeMaxProbes(t *testing.T) {
	logger, _ := test.NewNullLogger()
	fake := &oraclefakes.FakeOracle{}
	p := NewProber(universe(t), fake, NewMemoryCache(), logger)
	p.MaxProbes = 1

	pass, err := p.Probe(context.Background(), []basestate.State{basestate.NewState("1H", "A1")})
	require.NoError(t, err)
	assert.Equal(t, 1, pass.Queried)
	assert.Equal(t, 1, pass.Skipped)
	assert.Equal(t, 1, fake.QueryCallCount())
}

func TestProbeInterrupted(t *testing.T) {
	logger, _ := test.NewNullLogger()
	stub := &oracletest.Stub{}
	cache := NewMemoryCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProber(universe(t), stub, cache, logger).Probe(ctx, []basestate.State{basestate.NewState("1H")})
	assert.Error(t, err)
	assert.Equal(t, 1, stub.Calls())

	failures, err := cache.Failures()
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestMemoryCacheIsAppendOnly(t *testing.T) {
	cache := NewMemoryCache()
	state := basestate.NewState("1H")
	require.NoError(t, cache.Put(Result{State: state, Option: "A1", Added: []string{"AX"}}))
	require.NoError(t, cache.Put(Result{State: state, Option: "A1", Added: []string{"A2"}}))

	r, ok, err := cache.Get(Key{State: "1H", Option: "A1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"AX"}, r.Added)
}

func TestLoadObserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feasibility_from_har.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"url": "https://example.invalid", "optionAdded": "A2", "baseOptions": ["A1", "1H"],
   "engineAddedOptions": ["AX"], "userAddedOptions": [], "removedOptions": ["A1"], "feasibleOptions": ["1H", "A2", "AX"]},
  {"optionAdded": null, "baseOptions": []}
]`), 0o644))

	records, err := LoadObserved(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, basestate.NewState("1H", "A1"), records[0].State)
	assert.Equal(t, Key{State: "1H.A1", Option: "A2"}, records[0].Key())
	assert.Equal(t, []string{"A1"}, records[0].Removed)

	missing, err := LoadObserved(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}
