package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/configspace/configcount/pkg/metrics"
)

func TestWriteFile(t *testing.T) {
	metrics.Register()

	metrics.EmitProbe(metrics.Queried)
	metrics.EmitProbe(metrics.Queried)
	metrics.EmitProbe(metrics.Failed)
	metrics.EmitRules(237)
	metrics.EmitModelSize(221, 900)
	metrics.EmitCount(10, 42.5)
	metrics.RegisterCountSuccess(time.Second)
	metrics.EmitReplayRejection()

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, metrics.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), `configcount_probes_total{outcome="queried"} 2`)
	assert.Contains(t, string(data), `configcount_rules 237`)
	assert.Contains(t, string(data), `configcount_count_log10{budget="10"} 42.5`)
	assert.Contains(t, string(data), `configcount_count_duration_seconds_count{outcome="succeeded"} 1`)
	assert.Contains(t, string(data), `configcount_replay_rejections_total 1`)
}
