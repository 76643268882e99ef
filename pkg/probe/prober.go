package probe

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/catalog"
	"github.com/configspace/configcount/pkg/metrics"
	"github.com/configspace/configcount/pkg/oracle"
)

// Pass summarizes one probing pass over a set of base states.
type Pass struct {
	// Results holds the cached or fresh outcome of every probe of the
	// pass, failures included, sorted by key.
	Results []Result
	Queried int
	Cached  int
	Failed  int
	// Skipped counts probes left out by the MaxProbes cap or by an
	// earlier failure in the same run.
	Skipped int
}

// Pairs returns the number of (state, option) pairs the pass covered.
func (p *Pass) Pairs() int {
	return len(p.Results)
}

// Prober asks the oracle what happens when each candidate option is
// added to each base state, issuing at most one query per pair across
// every pass it runs and every run sharing its Cache.
type Prober struct {
	Universe *catalog.Universe
	Oracle   oracle.Oracle
	Cache    Cache
	Logger   logrus.FieldLogger
	// MaxProbes caps the number of new queries per pass. Zero means
	// no cap.
	MaxProbes int

	// failed holds the pairs that failed during this run; they are
	// left for a later run to retry.
	failed sets.Set[string]
}

// NewProber returns a prober over the universe that records outcomes
// in cache.
func NewProber(u *catalog.Universe, o oracle.Oracle, cache Cache, logger logrus.FieldLogger) *Prober {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Prober{
		Universe: u,
		Oracle:   o,
		Cache:    cache,
		Logger:   logger,
		failed:   sets.New[string](),
	}
}

// Candidates returns the options probed from state, in identifier
// order.
func (p *Prober) Candidates(state basestate.State) []string {
	var result []string
	for _, id := range p.Universe.Candidates() {
		if state.Contains(id) {
			continue
		}
		result = append(result, id)
	}
	return result
}

// Probe runs one pass over states. A failed query is logged, recorded
// in the cache's failure log and skipped. Probe only returns an error
// when the cache fails or ctx is done, in which case the pass covers
// the probes completed so far.
func (p *Prober) Probe(ctx context.Context, states []basestate.State) (*Pass, error) {
	if p.failed == nil {
		p.failed = sets.New[string]()
	}
	pass := &Pass{}
	seen := sets.New[string]()
	for _, state := range states {
		logger := p.Logger.WithFields(logrus.Fields{
			"state":       state.Fingerprint(),
			"stateLength": len(state),
		})
		for _, option := range p.Candidates(state) {
			key := Key{State: state.Key(), Option: option}
			if seen.Has(key.String()) {
				continue
			}
			seen.Insert(key.String())

			if r, ok, err := p.Cache.Get(key); err != nil {
				return pass, errors.Wrapf(err, "reading probe %s", key)
			} else if ok {
				pass.Results = append(pass.Results, r)
				pass.Cached++
				metrics.EmitProbe(metrics.Cached)
				continue
			}

			if p.failed.Has(key.String()) || (p.MaxProbes > 0 && pass.Queried >= p.MaxProbes) {
				pass.Skipped++
				metrics.EmitProbe(metrics.Skipped)
				continue
			}

			pass.Queried++
			closure, err := p.Oracle.Query(ctx, state, option)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					SortResults(pass.Results)
					return pass, errors.Wrap(ctxErr, "probing interrupted")
				}
				logger.WithField("option", option).WithError(err).Warn("probe failed")
				failure := Result{State: state, Option: option, Error: err.Error()}
				if err := p.Cache.PutFailure(failure); err != nil {
					return pass, errors.Wrapf(err, "recording failed probe %s", key)
				}
				p.failed.Insert(key.String())
				pass.Results = append(pass.Results, failure)
				pass.Failed++
				metrics.EmitProbe(metrics.Failed)
				continue
			}

			r := newResult(state, option, closure)
			if err := p.Cache.Put(r); err != nil {
				return pass, errors.Wrapf(err, "storing probe %s", key)
			}
			pass.Results = append(pass.Results, r)
			metrics.EmitProbe(metrics.Queried)
			logger.WithFields(logrus.Fields{
				"option":  option,
				"added":   len(r.Added),
				"removed": len(r.Removed),
			}).Debug("probed")
		}
	}
	SortResults(pass.Results)
	p.Logger.WithFields(logrus.Fields{
		"states":  len(states),
		"queried": pass.Queried,
		"cached":  pass.Cached,
		"failed":  pass.Failed,
		"skipped": pass.Skipped,
	}).Info("probing pass complete")
	return pass, nil
}
