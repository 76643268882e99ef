package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/configspace/configcount/pkg/cnf"
	"github.com/configspace/configcount/pkg/convergence"
	"github.com/configspace/configcount/pkg/count"
)

// Artifacts writes the files of a convergence run below Dir:
// runs/N<n>/ per budget and the convergence tables at the top. A
// zero Artifacts writes nothing.
type Artifacts struct {
	Dir string
}

func (a Artifacts) enabled() bool {
	return a.Dir != ""
}

// RunDir returns the directory of the run at budget n.
func (a Artifacts) RunDir(n int) string {
	return filepath.Join(a.Dir, fmt.Sprintf("N%d", n))
}

func (a Artifacts) create(path string, write func(w io.Writer) error) error {
	if !a.enabled() {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating artifact directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating artifact")
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

func (a Artifacts) encode(path string, v interface{}) error {
	return a.create(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	})
}

// WriteJSON writes v as indented JSON to name in the run directory of
// budget n.
func (a Artifacts) WriteJSON(n int, name string, v interface{}) error {
	return a.encode(filepath.Join(a.RunDir(n), name), v)
}

// WriteModel writes the DIMACS formula, the variable map, the
// required groups and the applied constraints of a model, one per
// line, in clause order.
func (a Artifacts) WriteModel(n int, m *cnf.Model) error {
	err := a.create(filepath.Join(a.RunDir(n), "model.cnf"), func(w io.Writer) error {
		return cnf.WriteDimacs(w, &m.Formula)
	})
	if err != nil {
		return err
	}
	if err := a.WriteJSON(n, "varmap.json", m.VarMap); err != nil {
		return err
	}
	groups := m.RequiredGroups
	if groups == nil {
		groups = []string{}
	}
	if err := a.WriteJSON(n, "required_groups.json", groups); err != nil {
		return err
	}
	return a.create(filepath.Join(a.RunDir(n), "applied_constraints.txt"), func(w io.Writer) error {
		for _, c := range m.Constraints {
			if _, err := fmt.Fprintln(w, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCount writes the bare decimal count and, next to it, the count
// paired with the size of the model that produced it.
func (a Artifacts) WriteCount(n int, r count.Result) error {
	if err := a.create(filepath.Join(a.RunDir(n), "count_result.txt"), func(w io.Writer) error {
		_, err := io.WriteString(w, r.Count.String())
		return err
	}); err != nil {
		return err
	}
	return a.WriteJSON(n, "count_result.json", r)
}

// WriteReport writes the convergence tables and the full run report.
func (a Artifacts) WriteReport(r *Report) error {
	if err := a.create(filepath.Join(a.Dir, "convergence_table.md"), func(w io.Writer) error {
		return convergence.WriteMarkdown(w, r.Convergence)
	}); err != nil {
		return err
	}
	if err := a.create(filepath.Join(a.Dir, "convergence_table.csv"), func(w io.Writer) error {
		return convergence.WriteCSV(w, r.Convergence)
	}); err != nil {
		return err
	}
	return a.encode(filepath.Join(a.Dir, "report.json"), r)
}
