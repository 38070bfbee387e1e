package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/scenario"
	"github.com/newwavedigital/ERP-sub000/pkg/interfaces/cli/output"
)

func newScenarioCommand(app *App) *cobra.Command {
	var format, outputDir string

	cmd := &cobra.Command{
		Use:   "scenario FILE",
		Short: "Run a calculation from a single YAML scenario file",
		Long: `Runs a calculation over a YAML scenario that carries its own catalog,
orders and stock.

Example:
  matcalc scenario example/preserves.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0], app.Logger)
			if err != nil {
				return err
			}
			catalogRepo, stockRepo, err := s.Repositories()
			if err != nil {
				return err
			}

			calc := newOrchestrator(catalogRepo, stockRepo, nil, nil, app.Config.Engine, app.Logger)

			start := time.Now()
			result, err := calc.Calculate(cmd.Context(), s.BatchID, s.Orders)
			if err != nil {
				return fmt.Errorf("error running scenario %s: %w", s.BatchID, err)
			}

			cfg := output.Config{
				Format:    format,
				OutputDir: outputDir,
				Verbose:   app.Verbose,
				Writer:    cmd.OutOrStdout(),
			}
			if app.Verbose {
				cfg.Elapsed = time.Since(start)
			}
			return output.Generate(result, cfg)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, csv or xlsx")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for json, csv and xlsx")
	return cmd
}
