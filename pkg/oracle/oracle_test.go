package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configspace/configcount/pkg/basestate"
)

const pooled = `[{"_1":2},"customer-feasibility",{"_3":4},"data",{"_5":6,"_11":13},"changeSet",{"_7":8,"_9":-5},"engineAddedOptions",[10],"removedOptions",{"_14":15},"feasibleOptions","unused",[15,16],"id","AX","1H"]`

func TestDecodePool(t *testing.T) {
	decoded, err := DecodePool([]byte(pooled))
	require.NoError(t, err)

	closure, err := closureOf(feasibilityRoute, decoded)
	require.NoError(t, err)
	assert.Equal(t, Closure{
		Added:    []string{"AX"},
		Feasible: []string{"AX", "1H"},
	}, closure)
}

func TestDecodePoolCycles(t *testing.T) {
	decoded, err := DecodePool([]byte(`[[0, -7, -3]]`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, nil, -3}, decoded)
}

func TestDecodePoolKeys(t *testing.T) {
	decoded, err := DecodePool([]byte(`[{"_-5":1,"_+1":2,"_":1,"_1":2},"k","v"]`))
	require.NoError(t, err)
	// Only an underscore followed by digits refers into the pool.
	assert.Equal(t, map[string]interface{}{
		"_-5": "k",
		"_+1": "v",
		"_":   "k",
		"k":   "v",
	}, decoded)
}

func TestDecodePoolErrors(t *testing.T) {
	for _, tt := range []struct {
		Name string
		Data string
	}{
		{Name: "not json", Data: "<html>"},
		{Name: "empty pool", Data: "[]"},
		{Name: "not a pool", Data: `{"a":1}`},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := DecodePool([]byte(tt.Data))
			assert.Error(t, err)
		})
	}
}

func TestClientQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(pooled))
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL + "/", Locale: "zh-CN", Model: "9921B2"}, nil)
	closure, err := c.Query(context.Background(), basestate.NewState("1H", "59C"), "AX")
	require.NoError(t, err)
	assert.Equal(t, []string{"AX"}, closure.Added)

	require.NotNil(t, got)
	assert.Equal(t, "/zh-CN/mode/model/9921B2/feasibility-notification.data", got.URL.Path)
	assert.Equal(t, "AX", got.URL.Query().Get("optionAdded"))
	assert.Equal(t, "1H.59C", got.URL.Query().Get("options"))
	assert.Equal(t, feasibilityRoute, got.URL.Query().Get("_routes"))
}

func TestClientQueryHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL}, nil)
	_, err := c.Query(context.Background(), basestate.NewState("1H"), "AX")
	assert.Error(t, err)
}

func TestThrottle(t *testing.T) {
	calls := 0
	o := OracleFunc(func(ctx context.Context, state basestate.State, option string) (Closure, error) {
		calls++
		return Closure{}, nil
	})
	_, unthrottled := Throttle(o, 0).(OracleFunc)
	assert.True(t, unthrottled)

	throttled := Throttle(o, time.Hour)
	_, err := throttled.Query(context.Background(), nil, "a")
	require.NoError(t, err)

	// The burst is spent; the next query waits and the context gives up first.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = throttled.Query(ctx, nil, "b")
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
