package store

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/catalog"
	"github.com/configspace/configcount/pkg/oracle/oraclefakes"
	"github.com/configspace/configcount/pkg/probe"
)

func openInMemory(t *testing.T) *Badger {
	t.Helper()
	logger, _ := test.NewNullLogger()
	b, err := Open(Config{InMemory: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBadgerAppendOnly(t *testing.T) {
	b := openInMemory(t)
	state := basestate.NewState("1H", "A1")

	require.NoError(t, b.Put(probe.Result{State: state, Option: "A2", Added: []string{"AX"}}))
	require.NoError(t, b.Put(probe.Result{State: state, Option: "A2", Added: []string{"ZZ"}}))
	require.NoError(t, b.Put(probe.Result{State: basestate.NewState("1H"), Option: "A2"}))

	r, ok, err := b.Get(probe.Key{State: "1H.A1", Option: "A2"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"AX"}, r.Added)
	assert.Equal(t, state, r.State)

	_, ok, err = b.Get(probe.Key{State: "1H.A1", Option: "missing"})
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := b.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := b.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1H", all[0].State.Key())
	assert.Equal(t, "1H.A1", all[1].State.Key())
}

func TestBadgerFailuresAreSeparate(t *testing.T) {
	b := openInMemory(t)
	state := basestate.NewState("1H")

	require.NoError(t, b.PutFailure(probe.Result{State: state, Option: "A2", Error: "timeout"}))
	_, ok, err := b.Get(probe.Key{State: "1H", Option: "A2"})
	require.NoError(t, err)
	assert.False(t, ok)

	failures, err := b.Failures()
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "timeout", failures[0].Error)

	n, err := b.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBadgerBacksProber(t *testing.T) {
	b := openInMemory(t)
	c, err := catalog.New([]catalog.Option{
		{ID: "1H", Group: "BODY", Default: true},
		{ID: "2H", Group: "BODY"},
		{ID: "A1"},
	}, nil)
	require.NoError(t, err)
	u := c.Universe(catalog.Filter{})
	logger, _ := test.NewNullLogger()
	fake := &oraclefakes.FakeOracle{}
	states := []basestate.State{basestate.NewState("1H")}

	_, err = probe.NewProber(u, fake, b, logger).Probe(context.Background(), states)
	require.NoError(t, err)
	pass, err := probe.NewProber(u, fake, b, logger).Probe(context.Background(), states)
	require.NoError(t, err)

	assert.Equal(t, 2, fake.QueryCallCount())
	assert.Equal(t, 2, pass.Cached)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{}, nil)
	assert.Error(t, err)
}
