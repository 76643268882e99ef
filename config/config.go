package config

import (
	"io/ioutil"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/configspace/configcount/pkg/catalog"
	"github.com/configspace/configcount/pkg/convergence"
	"github.com/configspace/configcount/pkg/oracle"
	"github.com/configspace/configcount/pkg/probe/store"
)

type File struct {
	Config Config `yaml:"configcount"`
}

type Data struct {
	Options string `yaml:"options"`
	Seeds   string `yaml:"seeds"`
	// Observed is the feasibility record file extracted from a
	// captured session. A missing file is not an error.
	Observed string `yaml:"observed"`
	// Known is a known-feasible configuration, a JSON array of option
	// identifiers, checked against every model when set.
	Known string `yaml:"known"`
}

type Counter struct {
	// DecisionLimit bounds the branching decisions of one count. Zero
	// means unbounded.
	DecisionLimit int `yaml:"decisionLimit"`
	// CrossCheckVars enables an enumeration cross-check of every model
	// with at most this many constrained variables.
	CrossCheckVars int `yaml:"crossCheckVars"`
}

type Validation struct {
	// Samples is the number of model samples replayed against the
	// configurator per budget. Zero disables replay.
	Samples int   `yaml:"samples"`
	Seed    int64 `yaml:"seed"`
}

type Config struct {
	Oracle oracle.Config `yaml:"oracle"`
	// Delay is the minimum interval between two configurator queries.
	Delay time.Duration `yaml:"delay"`
	// Sizes are the ascending sample budgets of a convergence run.
	Sizes []int `yaml:"sizes"`
	// Representatives is the number of options drawn per required
	// group when generating base states.
	Representatives int `yaml:"representatives"`
	MaxProbes       int `yaml:"maxProbes"`

	Filter      catalog.Filter        `yaml:"filter"`
	Data        Data                  `yaml:"data"`
	Cache       store.Config          `yaml:"cache"`
	OutDir      string                `yaml:"outDir"`
	Counter     Counter               `yaml:"counter"`
	Validation  Validation            `yaml:"validation"`
	Convergence convergence.Evaluator `yaml:"convergence"`
}

// Default returns the configuration of the 9921B2 zh-CN study.
func Default() *Config {
	return &Config{
		Oracle: oracle.Config{
			Endpoint: "https://configurator.porsche.com",
			Locale:   "zh-CN",
			Model:    "9921B2",
			Timeout:  30 * time.Second,
		},
		Delay:           200 * time.Millisecond,
		Sizes:           []int{1, 10, 30, 100},
		Representatives: 3,
		Filter: catalog.Filter{
			ExcludedTypes: []string{"tequipment"},
			Prohibited:    []string{"0UB.89.24931", "0UD.89.24931"},
		},
		Data: Data{
			Options:  "data/options.csv",
			Seeds:    "data/seeds.json",
			Observed: "data/feasibility_from_har.json",
		},
		Cache:  store.Config{Path: "runs/probe_cache"},
		OutDir: "runs",
		Counter: Counter{
			CrossCheckVars: 14,
		},
		Validation: Validation{
			Samples: 5,
			Seed:    1,
		},
		Convergence: convergence.NewEvaluator(),
	}
}

// LoadConfig reads the configuration file at cfgPath over the defaults.
// Environment variables in the path are expanded.
func LoadConfig(cfgPath string) (*Config, error) {
	f, err := os.Open(os.ExpandEnv(cfgPath))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	cfgFile := File{Config: *Default()}
	if err := yaml.UnmarshalStrict(d, &cfgFile); err != nil {
		return nil, err
	}

	config := &cfgFile.Config
	if config.Delay < 0 {
		config.Delay = 0
	}
	if config.Representatives <= 0 {
		config.Representatives = 3
	}
	return config, nil
}
