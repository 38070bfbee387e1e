package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/application/services/aggregator"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/orchestration"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/resolver"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/config"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/events"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/csv"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
	"github.com/newwavedigital/ERP-sub000/pkg/interfaces/cli/output"
)

// CalculateConfig holds configuration for the calculate command
type CalculateConfig struct {
	CatalogDir string
	OrdersFile string
	StockFile  string
	BatchID    string
	OutputDir  string
	Format     string
	Verbose    bool
}

// CalculateCommand runs a full calculation over a CSV catalog
type CalculateCommand struct {
	config CalculateConfig
	engine config.EngineConfig
	logger *zap.Logger
	out    io.Writer
}

// NewCalculateCommand creates a new calculate command with the given configuration
func NewCalculateCommand(cfg CalculateConfig, engine config.EngineConfig, logger *zap.Logger, out io.Writer) *CalculateCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = os.Stdout
	}
	return &CalculateCommand{config: cfg, engine: engine, logger: logger, out: out}
}

// Execute runs the calculate command
func (c *CalculateCommand) Execute(ctx context.Context) error {
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	loader := csv.NewLoader(c.logger)

	catalog, err := loader.LoadCatalog(c.config.CatalogDir)
	if err != nil {
		return fmt.Errorf("error loading catalog: %w", err)
	}
	orders, err := loader.LoadOrders(c.config.OrdersFile)
	if err != nil {
		return fmt.Errorf("error loading orders: %w", err)
	}

	catalogRepo := memory.NewCatalogRepository(len(catalog.Formulas), len(catalog.Items))
	if err := catalogRepo.LoadCatalog(catalog); err != nil {
		return fmt.Errorf("failed to load catalog into repository: %w", err)
	}

	// without stock every requirement is reported short
	var availability repositories.AvailabilityRepository
	if c.config.StockFile != "" {
		lots, err := loader.LoadStock(c.config.StockFile)
		if err != nil {
			return fmt.Errorf("error loading stock: %w", err)
		}
		stockRepo := memory.NewStockRepository()
		if err := stockRepo.LoadStockLots(lots); err != nil {
			return fmt.Errorf("failed to load stock into repository: %w", err)
		}
		availability = stockRepo
	}

	c.logger.Debug("inputs loaded",
		zap.Int("products", len(catalog.Products)),
		zap.Int("formulas", len(catalog.Formulas)),
		zap.Int("items", len(catalog.Items)),
		zap.Int("order_lines", len(orders)))

	calc := newOrchestrator(catalogRepo, availability, nil, nil, c.engine, c.logger)

	start := time.Now()
	result, err := calc.Calculate(ctx, c.batchID(), orders)
	if err != nil {
		return fmt.Errorf("error running calculation: %w", err)
	}

	cfg := output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Writer:    c.out,
	}
	if c.config.Verbose {
		cfg.Elapsed = time.Since(start)
	}
	return output.Generate(result, cfg)
}

func (c *CalculateCommand) validateInputs() error {
	if c.config.CatalogDir == "" {
		return fmt.Errorf("catalog directory is required")
	}
	if info, err := os.Stat(c.config.CatalogDir); err != nil || !info.IsDir() {
		return fmt.Errorf("catalog directory not found: %s", c.config.CatalogDir)
	}
	if c.config.OrdersFile == "" {
		return fmt.Errorf("orders file is required")
	}
	return nil
}

// batchID defaults to the orders file name without its extension
func (c *CalculateCommand) batchID() string {
	if c.config.BatchID != "" {
		return c.config.BatchID
	}
	base := filepath.Base(c.config.OrdersFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// newOrchestrator wires resolution, aggregation and reconciliation over a
// catalog. availability, gateway and publisher may be nil.
func newOrchestrator(
	catalog repositories.CatalogRepository,
	availability repositories.AvailabilityRepository,
	gateway repositories.AllocationGateway,
	publisher events.Publisher,
	engine config.EngineConfig,
	logger *zap.Logger,
) *orchestration.CalculatorOrchestrator {
	r := resolver.NewResolver(catalog, resolver.WithLogger(logger))
	agg := aggregator.NewAggregatorWithConfig(r, aggregator.Config{Concurrency: engine.Concurrency}, logger)
	return orchestration.NewCalculatorOrchestrator(agg, availability, gateway, publisher, logger)
}

func newCalculateCommand(app *App) *cobra.Command {
	var cfg CalculateConfig

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Explode orders into material requirements and shortfalls",
		Long: `Loads the catalog CSV files (materials, formulas, formula_items, products)
from a directory, explodes every order line through its active formula,
reconciles the totals against stock and reports the shortfalls.

Example:
  matcalc calculate --catalog-dir example/catalog --orders example/catalog/orders.csv \
      --stock example/catalog/stock.csv --format xlsx --output out/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.CatalogDir == "" {
				cfg.CatalogDir = app.Config.Engine.CatalogDir
			}
			if cfg.StockFile == "" {
				cfg.StockFile = app.Config.Engine.StockFile
			}
			cfg.Verbose = app.Verbose
			return NewCalculateCommand(cfg, app.Config.Engine, app.Logger, cmd.OutOrStdout()).Execute(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.CatalogDir, "catalog-dir", "", "directory holding the catalog CSV files")
	flags.StringVar(&cfg.OrdersFile, "orders", "", "orders CSV file")
	flags.StringVar(&cfg.StockFile, "stock", "", "stock CSV file (optional)")
	flags.StringVar(&cfg.BatchID, "batch", "", "batch id (default: orders file name)")
	flags.StringVarP(&cfg.Format, "format", "f", "text", "output format: text, json, csv or xlsx")
	flags.StringVarP(&cfg.OutputDir, "output", "o", "", "output directory for json, csv and xlsx")
	_ = cmd.MarkFlagRequired("orders")

	return cmd
}
