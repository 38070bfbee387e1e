package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
	"github.com/newwavedigital/ERP-sub000/pkg/interfaces/cli/output"
)

func newAllocateCommand(app *App) *cobra.Command {
	var format, outputDir string

	cmd := &cobra.Command{
		Use:   "allocate ORDER_ID",
		Short: "Allocate an order through the backend and report its shortfalls",
		Long: `Calls the configured allocation procedure for an order, normalizes the
response and prints the shortfall summary with its remediation queues.
Requires rpc.base_url.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config.RPC.BaseURL == "" {
				return fmt.Errorf("rpc.base_url is not configured")
			}
			client := newRPCClient(app.Config.RPC, app.Logger)

			// allocation never consults the local catalog
			calc := newOrchestrator(memory.NewCatalogRepository(0, 0), nil, client, nil, app.Config.Engine, app.Logger)
			result, err := calc.AllocateOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return output.Generate(result, output.Config{
				Format:    format,
				OutputDir: outputDir,
				Verbose:   app.Verbose,
				Writer:    cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, csv or xlsx")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for json, csv and xlsx")
	return cmd
}
