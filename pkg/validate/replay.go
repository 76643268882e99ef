package validate

import (
	"context"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/cnf"
	"github.com/configspace/configcount/pkg/metrics"
	"github.com/configspace/configcount/pkg/oracle"
)

// Rejection is a sampled configuration the configurator would not
// accept as is.
type Rejection struct {
	Sample  []string `json:"sample"`
	Option  string   `json:"option"`
	Removed []string `json:"removedOptions,omitempty"`
	Added   []string `json:"engineAddedOptions,omitempty"`
}

type ReplayFailure struct {
	Sample []string `json:"sample"`
	Option string   `json:"option"`
	Error  string   `json:"error"`
}

type ReplayReport struct {
	Samples    int             `json:"samples"`
	Accepted   int             `json:"accepted"`
	Rejections []Rejection     `json:"rejections,omitempty"`
	Failures   []ReplayFailure `json:"failures,omitempty"`
}

// Risk reports whether any sample was rejected. A rejection means the
// model admits a configuration the configurator does not, so a
// constraint is still missing.
func (r *ReplayReport) Risk() bool {
	return len(r.Rejections) > 0
}

// Replay sends every sample back to the configurator as the query
// "add o to sample - o", o being the sample's last option. The
// configurator rejects the sample when it removes a sampled option or
// adds a modeled option the sample left out. Transport failures are
// reported separately and prove nothing either way.
func Replay(ctx context.Context, o oracle.Oracle, m *cnf.Model, samples [][]string, logger logrus.FieldLogger) (*ReplayReport, error) {
	report := &ReplayReport{}
	for _, sample := range samples {
		if len(sample) == 0 {
			continue
		}
		report.Samples++
		selected := sets.New[string](sample...)
		option := sets.List(selected)[selected.Len()-1]
		state := basestate.NewState(sets.List(selected.Clone().Delete(option))...)

		closure, err := o.Query(ctx, state, option)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.WithError(err).WithField("option", option).Warn("replay query failed")
			report.Failures = append(report.Failures, ReplayFailure{Sample: sample, Option: option, Error: err.Error()})
			continue
		}

		var removed, added []string
		for _, id := range closure.Removed {
			if selected.Has(id) {
				removed = append(removed, id)
			}
		}
		for _, id := range closure.Added {
			if _, modeled := m.VarMap[id]; modeled && !selected.Has(id) {
				added = append(added, id)
			}
		}
		if len(removed) == 0 && len(added) == 0 {
			report.Accepted++
			continue
		}
		metrics.EmitReplayRejection()
		logger.WithFields(logrus.Fields{
			"option":  option,
			"removed": removed,
			"added":   added,
		}).Warn("sample rejected by configurator")
		report.Rejections = append(report.Rejections, Rejection{
			Sample:  sample,
			Option:  option,
			Removed: removed,
			Added:   added,
		})
	}
	return report, nil
}
