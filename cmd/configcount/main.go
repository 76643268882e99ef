package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/configspace/configcount/config"
	"github.com/configspace/configcount/pkg/metrics"
	"github.com/configspace/configcount/pkg/version"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	logger      *logrus.Logger
	cfg         *config.Config
	configPath  string
	metricsFile string
	debug       bool
}

func main() {
	metrics.Register()

	a := &app{logger: logrus.New()}
	rootCmd := &cobra.Command{
		Use:   "configcount",
		Short: "configcount",
		Long: `Count the feasible configurations of a rule-based product configurator
by probing it, building a CNF model of the discovered rules and counting
the model exactly.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.metricsFile == "" {
				return nil
			}
			return metrics.WriteFile(a.metricsFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	if err := rootCmd.PersistentFlags().MarkHidden("debug"); err != nil {
		a.logger.Panic(err.Error())
	}

	rootCmd.AddCommand(
		newRunCmd(a),
		newStatesCmd(a),
		newBuildCmd(a),
		newCountCmd(a),
		newValidateCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		a.logger.Error(err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	if a.debug {
		a.logger.SetLevel(logrus.DebugLevel)
	}
	a.logger.Debugf("log level %s", a.logger.Level)

	if a.configPath == "" {
		a.cfg = config.Default()
		return nil
	}
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.WithField("path", a.configPath).Debug("loaded configuration")
	return nil
}
