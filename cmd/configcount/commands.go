package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/configspace/configcount/pkg/basestate"
	"github.com/configspace/configcount/pkg/cnf"
	"github.com/configspace/configcount/pkg/convergence"
	"github.com/configspace/configcount/pkg/count"
	"github.com/configspace/configcount/pkg/lib/signals"
	"github.com/configspace/configcount/pkg/validate"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newRunCmd(a *app) *cobra.Command {
	var (
		sizes     []int
		maxProbes int
		outDir    string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline at increasing sample budgets and evaluate convergence",
		Long: `The configcount run command probes the configurator from the base states
        of every sample budget, builds and counts the model of the rules
        discovered so far and reports whether the count has converged.

        Probe results are cached, so a run at larger budgets resumes from
        everything probed before. Until the rule set converges the count
        is reported as an upper bound.

        $ configcount run --config configcount.yaml --sizes 1,10,30,100
        `,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("sizes") {
				a.cfg.Sizes = sizes
			}
			if cmd.Flags().Changed("max-probes") {
				a.cfg.MaxProbes = maxProbes
			}
			if cmd.Flags().Changed("out-dir") {
				a.cfg.OutDir = outDir
			}

			p, closeCache, err := a.newPipeline()
			if err != nil {
				return err
			}
			defer closeCache()

			report, err := p.Converge(signals.Context(), a.cfg.Sizes)
			if report != nil && report.Convergence != nil {
				if werr := convergence.WriteMarkdown(cmd.OutOrStdout(), report.Convergence); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}

			latest, final := report.Counted()
			if final {
				fmt.Fprintf(cmd.OutOrStdout(), "count: %s\n", latest)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "count: at most %s (not converged)\n", latest)
			}
			for _, c := range report.Categories {
				fmt.Fprintf(cmd.OutOrStdout(), "occurred: %s\n", c)
			}
			if report.ReplayRisk {
				fmt.Fprintln(cmd.OutOrStdout(), "convergence risk: the configurator rejected sampled configurations")
			}
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", nil, "ascending sample budgets")
	cmd.Flags().IntVar(&maxProbes, "max-probes", 0, "cap on new probes per budget, for dry runs")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "directory receiving the run artifacts")
	return cmd
}

func newStatesCmd(a *app) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "states",
		Short: "Print the base states of a sample budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.universe()
			if err != nil {
				return err
			}
			g := basestate.Generator{Universe: u, Representatives: a.cfg.Representatives}
			return printJSON(cmd.OutOrStdout(), g.Generate(n))
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 1, "sample budget")
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Probe the base states of a sample budget and build the model, without counting",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeCache, err := a.newPipeline()
			if err != nil {
				return err
			}
			defer closeCache()

			run, _, _, err := p.Build(signals.Context(), n)
			if err != nil {
				return err
			}
			a.logger.WithField("dir", p.Artifacts.RunDir(n)).Info("wrote model")
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
	cmd.Flags().IntVarP(&n, "n", "n", 1, "sample budget")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	var (
		enumerate     bool
		decisionLimit int
		trace         bool
	)
	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Count the models of a DIMACS CNF file exactly",
		Long: `The configcount count command reads a DIMACS CNF formula from a file, or
        from standard input when no file or "-" is given, and prints its
        exact number of satisfying assignments as a decimal integer.

        $ configcount count runs/N100/model.cnf
        `,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			formula, err := cnf.ReadDimacs(r)
			if err != nil {
				return err
			}

			options := []count.Option{count.WithDecisionLimit(decisionLimit)}
			if trace {
				options = append(options, count.WithTracer(count.LoggingTracer{Writer: cmd.ErrOrStderr(), Every: 1000}))
			}
			ctx := signals.Context()
			n, err := count.NewExact(options...).Count(ctx, formula)
			if err != nil {
				return err
			}
			if enumerate {
				m, err := count.Enumerating{MaxVars: a.cfg.Counter.CrossCheckVars}.Count(ctx, formula)
				if err != nil {
					return errors.Wrap(err, "enumerating")
				}
				if m.Cmp(n) != 0 {
					return errors.Errorf("enumeration counted %s, exact count %s", m, n)
				}
				a.logger.Info("enumeration agrees")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&enumerate, "enumerate", false, "cross-check the count by enumerating models")
	cmd.Flags().IntVar(&decisionLimit, "decision-limit", 0, "fail after this many branching decisions")
	cmd.Flags().BoolVar(&trace, "trace", false, "trace the search")
	if err := cmd.Flags().MarkHidden("trace"); err != nil {
		a.logger.Panic(err.Error())
	}
	return cmd
}

// loadModel reads the model written to a run directory.
func loadModel(dir string) (*cnf.Model, error) {
	f, err := os.Open(filepath.Join(dir, "model.cnf"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	formula, err := cnf.ReadDimacs(f)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, "varmap.json"))
	if err != nil {
		return nil, err
	}
	m := &cnf.Model{Formula: *formula}
	if err := json.Unmarshal(data, &m.VarMap); err != nil {
		return nil, errors.Wrap(err, "decoding variable map")
	}
	for id := range m.VarMap {
		m.Variables = append(m.Variables, id)
	}
	sort.Slice(m.Variables, func(i, j int) bool {
		return m.VarMap[m.Variables[i]] < m.VarMap[m.Variables[j]]
	})
	for i, id := range m.Variables {
		if m.VarMap[id] != i+1 || i+1 > formula.NumVars {
			return nil, errors.Errorf("variable map does not match %s", filepath.Join(dir, "model.cnf"))
		}
	}
	return m, nil
}

func newValidateCmd(a *app) *cobra.Command {
	var (
		known   string
		samples int
	)
	cmd := &cobra.Command{
		Use:   "validate run-dir",
		Short: "Check a built model against a known configuration and live replays",
		Long: `The configcount validate command loads the model of a run directory,
        forces a known-feasible configuration into it and, when samples are
        requested, replays uniformly drawn model configurations against the
        configurator. Any rejected sample means a constraint is missing.

        $ configcount validate runs/N100 --known known.json --samples 5
        `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModel(args[0])
			if err != nil {
				return err
			}
			if known == "" {
				known = a.cfg.Data.Known
			}
			ids, err := readKnown(known)
			if err != nil {
				return err
			}

			ctx := signals.Context()
			counter := a.newCounter()
			var result struct {
				GroundTruth *validate.GroundTruthResult `json:"ground_truth,omitempty"`
				Replay      *validate.ReplayReport      `json:"replay,omitempty"`
			}
			if len(ids) > 0 {
				if result.GroundTruth, err = validate.GroundTruth(ctx, counter, m, ids); err != nil {
					return err
				}
			}
			if samples > 0 {
				drawn, err := validate.NewSampler(counter, m, a.cfg.Validation.Seed).Samples(ctx, samples)
				if err != nil {
					return err
				}
				logger := a.logger.WithFields(logrus.Fields{"model": args[0]})
				if result.Replay, err = validate.Replay(ctx, a.newOracle(), m, drawn, logger); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&known, "known", "", "JSON array of the options of a known-feasible configuration")
	cmd.Flags().IntVar(&samples, "samples", 0, "number of model samples to replay against the configurator")
	return cmd
}
