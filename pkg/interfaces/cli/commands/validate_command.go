package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/csv"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/scenario"
	"github.com/newwavedigital/ERP-sub000/pkg/interfaces/cli/output"
)

func newValidateCommand(app *App) *cobra.Command {
	var catalogDir, scenarioFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check catalog consistency",
		Long: `Reports products without a formula link, formula items pointing at
unknown formulas, duplicate items, empty formulas and other catalog problems.
Exits non-zero when errors are found; warnings alone pass.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var catalog services.Catalog
			switch {
			case scenarioFile != "":
				s, err := scenario.Load(scenarioFile, app.Logger)
				if err != nil {
					return err
				}
				catalog = s.Catalog
			default:
				dir := catalogDir
				if dir == "" {
					dir = app.Config.Engine.CatalogDir
				}
				if dir == "" {
					return fmt.Errorf("either --catalog-dir or --scenario is required")
				}
				loaded, err := csv.NewLoader(app.Logger).LoadCatalog(dir)
				if err != nil {
					return fmt.Errorf("error loading catalog: %w", err)
				}
				catalog = loaded
			}

			result := services.NewFormulaValidator().Validate(catalog)
			output.WriteValidation(cmd.OutOrStdout(), result)
			if !result.Valid() {
				return fmt.Errorf("catalog validation failed with %d errors", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "directory holding the catalog CSV files")
	cmd.Flags().StringVar(&scenarioFile, "scenario", "", "validate the catalog of a YAML scenario instead")
	return cmd
}
