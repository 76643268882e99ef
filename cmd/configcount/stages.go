package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/catalog"
	"github.com/configspace/configcount/pkg/cnf"
	"github.com/configspace/configcount/pkg/count"
	"github.com/configspace/configcount/pkg/metrics"
	"github.com/configspace/configcount/pkg/oracle"
	"github.com/configspace/configcount/pkg/pipeline"
	"github.com/configspace/configcount/pkg/probe"
	"github.com/configspace/configcount/pkg/probe/store"
)

func (a *app) universe() (*catalog.Universe, error) {
	c, err := catalog.Load(a.cfg.Data.Options, a.cfg.Data.Seeds)
	if err != nil {
		return nil, err
	}
	a.logger.WithFields(logrus.Fields{
		"options": c.Len(),
		"groups":  len(c.Groups()),
		"seeds":   len(c.Seeds),
	}).Info("loaded catalog")
	return c.Universe(a.cfg.Filter), nil
}

func (a *app) newOracle() oracle.Oracle {
	return oracle.Throttle(oracle.NewClient(a.cfg.Oracle, nil), a.cfg.Delay)
}

func (a *app) newCounter() count.Counter {
	return count.NewInstrumentedCounter(
		count.NewExact(count.WithDecisionLimit(a.cfg.Counter.DecisionLimit)),
		metrics.RegisterCountSuccess,
		metrics.RegisterCountFailure,
	)
}

// newPipeline assembles the stages from the configuration. The returned
// function closes the probe cache.
func (a *app) newPipeline() (*pipeline.Pipeline, func() error, error) {
	u, err := a.universe()
	if err != nil {
		return nil, nil, err
	}
	observed, err := probe.LoadObserved(a.cfg.Data.Observed)
	if err != nil {
		return nil, nil, err
	}
	known, err := readKnown(a.cfg.Data.Known)
	if err != nil {
		return nil, nil, err
	}
	cache, err := store.Open(a.cfg.Cache, a.logger)
	if err != nil {
		return nil, nil, err
	}
	if n, err := cache.Len(); err == nil {
		a.logger.WithField("results", n).Info("opened probe cache")
	}

	prober := probe.NewProber(u, a.newOracle(), cache, a.logger)
	prober.MaxProbes = a.cfg.MaxProbes

	p := &pipeline.Pipeline{
		Generator: basestate.Generator{Universe: u, Representatives: a.cfg.Representatives},
		Prober:    prober,
		Builder:   cnf.Builder{Universe: u, Logger: a.logger},
		Counter:   a.newCounter(),
		Evaluator: a.cfg.Convergence,
		Observed:  observed,
		Known:     known,
		Samples:   a.cfg.Validation.Samples,
		Seed:      a.cfg.Validation.Seed,
		Artifacts: pipeline.Artifacts{Dir: a.cfg.OutDir},
		Logger:    a.logger,
	}
	if a.cfg.Counter.CrossCheckVars > 0 {
		p.CrossCheck = count.Enumerating{MaxVars: a.cfg.Counter.CrossCheckVars}
	}
	return p, cache.Close, nil
}

// readKnown reads a known-feasible configuration, a JSON array of
// option identifiers. An empty path yields none.
func readKnown(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading known configuration")
	}
	var known []string
	if err := json.Unmarshal(data, &known); err != nil {
		return nil, errors.Wrapf(err, "decoding known configuration %s", path)
	}
	return known, nil
}
