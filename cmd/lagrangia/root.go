package main

import (
	"github.com/spf13/cobra"

	"github.com/theoryforge/lagrangia/pkg/config"
	"github.com/theoryforge/lagrangia/pkg/logging"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lagrangia",
		Short: "Evolutionary search for field-equation coefficients",
		Long: `lagrangia evolves a six-coefficient Lagrangian ansatz until its derived
observables match the measured speed of light, fine-structure constant and
gravitational constant.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "lagrangia.yaml", "path to the YAML config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newExportCmd())

	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	var outputs []logging.Output
	for _, out := range cfg.Logging.Outputs {
		switch out.Type {
		case "file":
			fileOut, err := logging.NewFileOutput(out.FilePath)
			if err != nil {
				continue
			}
			outputs = append(outputs, fileOut)
		default:
			outputs = append(outputs, logging.NewConsoleOutput(true, logging.WithColor(out.Colors)))
		}
	}
	if len(outputs) == 0 {
		outputs = []logging.Output{logging.NewConsoleOutput(true, logging.WithColor(true))}
	}

	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Level),
		Outputs:  outputs,
	}))
}
