package matcalc

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/application/services/aggregator"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/orchestration"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/resolver"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
)

// EngineConfig holds configuration for the calculation engine
type EngineConfig struct {
	// Concurrency limits parallel order line resolution (<= 0 means unlimited)
	Concurrency int
	// Logger receives resolution diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Engine calculates material requirements and shortfalls over an
// in-memory catalog and stock
type Engine struct {
	catalog *memory.CatalogRepository
	stock   *memory.StockRepository
	calc    *orchestration.CalculatorOrchestrator
}

// NewEngine creates an engine with the default configuration
func NewEngine(catalog Catalog, stock []*StockLot) (*Engine, error) {
	return NewEngineWithConfig(catalog, stock, EngineConfig{Concurrency: 8})
}

// NewEngineWithConfig creates an engine with custom configuration.
// A nil stock slice means nothing is on hand.
func NewEngineWithConfig(catalog Catalog, stock []*StockLot, config EngineConfig) (*Engine, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalogRepo := memory.NewCatalogRepository(len(catalog.Formulas), len(catalog.Items))
	if err := catalogRepo.LoadCatalog(catalog); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	stockRepo := memory.NewStockRepository()
	if err := stockRepo.LoadStockLots(stock); err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}

	r := resolver.NewResolver(catalogRepo, resolver.WithLogger(logger))
	agg := aggregator.NewAggregatorWithConfig(r, aggregator.Config{Concurrency: config.Concurrency}, logger)

	return &Engine{
		catalog: catalogRepo,
		stock:   stockRepo,
		calc:    orchestration.NewCalculatorOrchestrator(agg, stockRepo, nil, nil, logger),
	}, nil
}

// Requirements explodes and aggregates the order lines of a batch
func (e *Engine) Requirements(ctx context.Context, batchID string, lines []OrderLine) (*RequirementReport, error) {
	return e.calc.Requirements(ctx, batchID, lines)
}

// Calculate explodes a batch, reconciles it against stock and classifies
// the shortfalls
func (e *Engine) Calculate(ctx context.Context, batchID string, lines []OrderLine) (*Result, error) {
	return e.calc.Calculate(ctx, batchID, lines)
}

// AddStock receives more stock. Later calculations see it.
func (e *Engine) AddStock(lots ...*StockLot) error {
	return e.stock.LoadStockLots(lots)
}

// Validate checks the consistency of the loaded catalog
func (e *Engine) Validate() *ValidationResult {
	return services.NewFormulaValidator().Validate(e.catalog.Catalog())
}
