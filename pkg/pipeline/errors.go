package pipeline

import (
	"fmt"
)

// Category classifies what went wrong during a run at one budget.
type Category string

const (
	// TransientOracleFailure is a failed probe. The pair is skipped and
	// left for a later run; the run continues.
	TransientOracleFailure Category = "transient-oracle-failure"
	// ModelBuildInconsistency aborts the run: the rules reference
	// options the catalog does not know.
	ModelBuildInconsistency Category = "model-build-inconsistency"
	// CounterFailure aborts the run: the model could not be counted
	// exactly.
	CounterFailure Category = "counter-failure"
	// UnsatisfiableModel is a zero count. It is reported, not raised.
	UnsatisfiableModel Category = "unsatisfiable-model"
)

// Fatal reports whether a category aborts the run.
func (c Category) Fatal() bool {
	return c == ModelBuildInconsistency || c == CounterFailure
}

// Failure is a fatal error at one budget.
type Failure struct {
	Category Category
	N        int
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("N=%d: %s: %v", f.N, f.Category, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Cause supports github.com/pkg/errors.Cause.
func (f *Failure) Cause() error {
	return f.Err
}
