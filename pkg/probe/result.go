package probe

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/oracle"
)

// Key identifies a probe: the option added to a base state.
type Key struct {
	State  string
	Option string
}

func (k Key) String() string {
	return k.State + "|" + k.Option
}

// Result is the outcome of adding Option to State. A Result with a
// non-empty Error yields no rules.
type Result struct {
	State     basestate.State `json:"baseOptions"`
	Option    string          `json:"optionAdded"`
	Added     []string        `json:"engineAddedOptions"`
	Removed   []string        `json:"removedOptions"`
	UserAdded []string        `json:"userAddedOptions,omitempty"`
	Feasible  []string        `json:"feasibleOptions,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func (r Result) Key() Key {
	return Key{State: r.State.Key(), Option: r.Option}
}

// Failed reports whether the probe produced no closure.
func (r Result) Failed() bool {
	return r.Error != ""
}

func newResult(state basestate.State, option string, c oracle.Closure) Result {
	return Result{
		State:     state,
		Option:    option,
		Added:     c.Added,
		Removed:   c.Removed,
		UserAdded: c.UserAdded,
		Feasible:  c.Feasible,
	}
}

// SortResults orders results by key.
func SortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Key(), results[j].Key()
		if a.State != b.State {
			return a.State < b.State
		}
		return a.Option < b.Option
	})
}

// LoadObserved reads feasibility records captured from real
// configurator traffic. Records without an added option are dropped.
// A missing file yields no records.
func LoadObserved(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading observed records %s", path)
	}
	var records []Result
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decoding observed records %s", path)
	}
	var result []Result
	for _, r := range records {
		if r.Option == "" {
			continue
		}
		r.State = basestate.NewState(r.State...)
		r.Error = ""
		result = append(result, r)
	}
	return result, nil
}
