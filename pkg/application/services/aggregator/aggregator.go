package aggregator

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/resolver"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// LineResolver resolves an order line to its formula
type LineResolver interface {
	Resolve(ctx context.Context, line entities.OrderLine) (*resolver.Resolution, error)
}

// Config holds configuration for the aggregator
type Config struct {
	// Concurrency limits parallel catalog lookups (<= 0 means unlimited)
	Concurrency int
}

// Aggregator explodes order lines through their formulas and sums material requirements
type Aggregator struct {
	resolver LineResolver
	config   Config
	logger   *zap.Logger
}

// NewAggregator creates a new aggregator with default configuration
func NewAggregator(r LineResolver, logger *zap.Logger) *Aggregator {
	return NewAggregatorWithConfig(r, Config{Concurrency: 8}, logger)
}

// NewAggregatorWithConfig creates a new aggregator with custom configuration
func NewAggregatorWithConfig(r LineResolver, config Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		resolver: r,
		config:   config,
		logger:   logger,
	}
}

// Aggregate explodes every line of a batch. Resolver failures abort the run;
// lines without a usable formula are reported in MissingFormulas.
func (a *Aggregator) Aggregate(ctx context.Context, batchID string, lines []entities.OrderLine) (*dto.RequirementReport, error) {
	resolutions, err := a.resolveAll(ctx, lines)
	if err != nil {
		return nil, err
	}

	report := &dto.RequirementReport{
		BatchID:         batchID,
		Raw:             []entities.MaterialRequirement{},
		Packaging:       []entities.MaterialRequirement{},
		Breakdown:       make([]entities.LineExplosion, 0, len(lines)),
		MissingFormulas: []entities.MissingFormula{},
	}

	raw := make(map[string]*entities.MaterialRequirement)
	packaging := make(map[string]*entities.MaterialRequirement)

	for i, line := range lines {
		res := resolutions[i]
		explosion := entities.LineExplosion{
			OrderLineID: line.ID,
			ProductID:   line.ProductID,
			ProductName: line.DisplayName(),
			Quantity:    line.Quantity,
			Items:       []entities.ExplodedItem{},
		}
		if res.Product != nil {
			explosion.ProductID = res.Product.ID
			explosion.ProductName = res.Product.Name
		}
		if res.Formula != nil {
			explosion.Formula = res.Formula.Ref()
		}

		if !res.Resolved() {
			report.MissingFormulas = append(report.MissingFormulas, entities.MissingFormula{
				OrderLineID: line.ID,
				ProductName: explosion.ProductName,
				Quantity:    line.Quantity,
				Reason:      res.Reason,
			})
			continue
		}

		for _, item := range res.Items {
			required := line.Quantity.Mul(item.QtyPerUnit)
			explosion.Items = append(explosion.Items, entities.ExplodedItem{
				MaterialID:   item.Material.ID,
				MaterialName: item.Material.Name,
				Category:     item.Material.Category,
				UOM:          item.UOM,
				QtyPerUnit:   item.QtyPerUnit,
				RequiredQty:  required,
			})

			bucket := raw
			if item.Material.Category == entities.CategoryPackaging {
				bucket = packaging
			}
			accumulate(bucket, item, required)
		}
		report.Breakdown = append(report.Breakdown, explosion)
	}

	report.Raw = sortedRequirements(raw)
	report.Packaging = sortedRequirements(packaging)

	a.logger.Debug("aggregated batch requirements",
		zap.String("batch", batchID),
		zap.Int("lines", len(lines)),
		zap.Int("raw", len(report.Raw)),
		zap.Int("packaging", len(report.Packaging)),
		zap.Int("missing_formulas", len(report.MissingFormulas)))

	return report, nil
}

// resolveAll resolves lines in parallel. Lines referencing the same product
// share a single catalog lookup.
func (a *Aggregator) resolveAll(ctx context.Context, lines []entities.OrderLine) ([]*resolver.Resolution, error) {
	resolutions := make([]*resolver.Resolution, len(lines))
	var group singleflight.Group

	g, gctx := errgroup.WithContext(ctx)
	if a.config.Concurrency > 0 {
		g.SetLimit(a.config.Concurrency)
	}

	for i, line := range lines {
		g.Go(func() error {
			v, err, _ := group.Do(line.ProductRef(), func() (interface{}, error) {
				return a.resolver.Resolve(gctx, line)
			})
			if err != nil {
				return fmt.Errorf("failed to resolve order line %s (%s): %w", line.ID, line.DisplayName(), err)
			}
			resolutions[i] = v.(*resolver.Resolution)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolutions, nil
}

// accumulate adds required quantity to a material's running total
func accumulate(bucket map[string]*entities.MaterialRequirement, item *entities.FormulaItem, required decimal.Decimal) {
	key := item.Material.Key()
	if existing, exists := bucket[key]; exists {
		existing.RequiredQty = existing.RequiredQty.Add(required)
		return
	}
	bucket[key] = &entities.MaterialRequirement{
		MaterialID:       item.Material.ID,
		MaterialName:     item.Material.Name,
		Category:         item.Material.Category,
		UOM:              item.UOM,
		IsClientMaterial: item.Material.IsClientMaterial,
		RequiredQty:      required,
	}
}

// sortedRequirements orders a bucket by material display name, then id
func sortedRequirements(bucket map[string]*entities.MaterialRequirement) []entities.MaterialRequirement {
	out := make([]entities.MaterialRequirement, 0, len(bucket))
	for _, req := range bucket {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaterialName != out[j].MaterialName {
			return out[i].MaterialName < out[j].MaterialName
		}
		return out[i].MaterialID < out[j].MaterialID
	})
	return out
}
