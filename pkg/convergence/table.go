package convergence

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var columns = []string{
	"N",
	"probed_pairs",
	"unique_rules",
	"cnf_vars",
	"cnf_clauses",
	"count",
	"log10_count",
	"ratio_to_prev",
	"delta_log10",
	"new_rules_vs_prev",
	"converged",
}

func format(v *float64, verb string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(verb, *v)
}

func (s Step) row() []string {
	return []string{
		strconv.Itoa(s.N),
		strconv.Itoa(s.ProbedPairs),
		strconv.Itoa(s.UniqueRules),
		strconv.Itoa(s.Vars),
		strconv.Itoa(s.Clauses),
		s.Count.String(),
		format(s.Log10Count, "%.2f"),
		format(s.RatioToPrev, "%.4g"),
		format(s.DeltaLog10, "%.4f"),
		strconv.Itoa(s.NewRules),
		strconv.FormatBool(s.Converged),
	}
}

// WriteMarkdown renders the report as a markdown table followed by the
// convergence status line.
func WriteMarkdown(w io.Writer, r *Report) error {
	line := func(cells []string) string {
		out := "|"
		for _, c := range cells {
			out += c + "|"
		}
		return out + "\n"
	}
	sep := make([]string, len(columns))
	for i := range sep {
		sep[i] = "-"
	}
	if _, err := io.WriteString(w, line(columns)+line(sep)); err != nil {
		return err
	}
	for _, s := range r.Steps {
		if _, err := io.WriteString(w, line(s.row())); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nstatus: %s, latest count %s\n", r.Status, r.Latest)
	return err
}

func WriteCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, s := range r.Steps {
		if err := cw.Write(s.row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
