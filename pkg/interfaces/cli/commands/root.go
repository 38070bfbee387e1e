package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/config"
)

// App carries the state shared by every subcommand. Config and Logger are
// filled in by the root command before any subcommand runs unless already set.
type App struct {
	ConfigPath string
	Verbose    bool

	Config *config.Config
	Logger *zap.Logger
}

// NewRootCommand builds the matcalc command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&App{})
}

func newRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "matcalc",
		Short: "Materials calculator for batch production",
		Long: `matcalc explodes production orders through their formulas into raw
material and packaging requirements, reconciles them against stock and
classifies every shortfall as a client request or a purchase requisition.`,
		SilenceUsage:      true,
		PersistentPreRunE: app.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "path to config file (default ./configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "enable debug logging and timing output")

	root.AddCommand(
		newCalculateCommand(app),
		newAllocateCommand(app),
		newScenarioCommand(app),
		newValidateCommand(app),
		newServeCommand(app),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command, args []string) error {
	if a.Config == nil {
		cfg, err := config.Load(a.ConfigPath)
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if a.Verbose {
		a.Config.Log.Level = "debug"
	}

	if a.Logger == nil {
		logger, err := config.NewLogger(a.Config.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.Logger = logger
	}
	return nil
}
