package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
)

// Resolution is the outcome of resolving one order line to a formula.
// An unresolved result is a valid outcome, not an error.
type Resolution struct {
	Product *entities.Product
	Formula *entities.Formula
	Items   []*entities.FormulaItem

	// Matched records how the formula was found: "link" or "name".
	Matched string
	Reason  entities.MissingReason
}

// Resolved reports whether a formula with at least one item was found
func (r *Resolution) Resolved() bool {
	return r != nil && r.Formula != nil && len(r.Items) > 0
}

// Resolver maps order lines to their active formula and items
type Resolver struct {
	catalog repositories.CatalogRepository
	matcher *services.NameMatcher
	logger  *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger used for resolution diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver over a read-only catalog
func NewResolver(catalog repositories.CatalogRepository, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: catalog,
		matcher: services.NewNameMatcher(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the formula for an order line. Catalog failures are returned
// as errors; anything not found yields an unresolved Resolution.
func (r *Resolver) Resolve(ctx context.Context, line entities.OrderLine) (*Resolution, error) {
	product, err := r.resolveProduct(ctx, line)
	if err != nil {
		return nil, err
	}
	if product == nil {
		r.logger.Debug("product not resolved",
			zap.String("order_line", line.ID),
			zap.String("product", line.DisplayName()))
		return &Resolution{Reason: entities.ReasonProductNotFound}, nil
	}

	return r.ResolveProduct(ctx, product)
}

// ResolveProduct finds the formula for an already identified product
func (r *Resolver) ResolveProduct(ctx context.Context, product *entities.Product) (*Resolution, error) {
	res := &Resolution{Product: product}

	formula, matched, err := r.resolveFormula(ctx, product)
	if err != nil {
		return nil, err
	}
	if formula == nil {
		res.Reason = entities.ReasonFormulaNotFound
		return res, nil
	}
	res.Formula = formula
	res.Matched = matched

	items, err := r.catalog.GetFormulaItems(ctx, formula.ID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to get items for formula %s: %w", formula.ID, err)
	}
	if len(items) == 0 {
		res.Reason = entities.ReasonFormulaEmpty
		return res, nil
	}
	res.Items = items

	return res, nil
}

// resolveProduct identifies the product by id, then by exact and approximate name
func (r *Resolver) resolveProduct(ctx context.Context, line entities.OrderLine) (*entities.Product, error) {
	if line.ProductID != "" {
		product, err := r.catalog.GetProduct(ctx, line.ProductID)
		switch {
		case err == nil:
			return product, nil
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("failed to get product %s: %w", line.ProductID, err)
		}
	}

	if line.ProductName == "" {
		return nil, nil
	}

	candidates, err := r.catalog.FindProductsByName(ctx, line.ProductName)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to find products named %q: %w", line.ProductName, err)
	}

	return r.pickProduct(line.ProductName, candidates), nil
}

// pickProduct prefers an exact name match, then the first approximate match
// in name order so repeated runs select the same product.
func (r *Resolver) pickProduct(name string, candidates []*entities.Product) *entities.Product {
	sorted := make([]*entities.Product, 0, len(candidates))
	for _, c := range candidates {
		if c != nil {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})

	for _, c := range sorted {
		if r.matcher.Exact(c.Name, name) {
			return c
		}
	}
	for _, c := range sorted {
		if r.matcher.Approximate(c.Name, name) {
			return c
		}
	}
	return nil
}

// resolveFormula follows the direct link first and falls back to the
// highest-version formula whose name matches the product.
func (r *Resolver) resolveFormula(ctx context.Context, product *entities.Product) (*entities.Formula, string, error) {
	if product.HasFormulaLink() {
		formula, err := r.catalog.GetFormula(ctx, product.FormulaID)
		switch {
		case err == nil:
			return formula, "link", nil
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, "", fmt.Errorf("failed to get formula %s: %w", product.FormulaID, err)
		}
		r.logger.Warn("product links a missing formula, falling back to name search",
			zap.String("product", product.ID),
			zap.String("formula", product.FormulaID))
	}

	hints := []string{product.FormulaName, product.Name}
	for _, hint := range hints {
		if hint == "" {
			continue
		}
		candidates, err := r.catalog.FindFormulasByName(ctx, hint)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to find formulas named %q: %w", hint, err)
		}
		if best := pickLatestFormula(candidates); best != nil {
			return best, "name", nil
		}
	}

	return nil, "", nil
}

// pickLatestFormula selects the highest version, breaking ties by id
func pickLatestFormula(candidates []*entities.Formula) *entities.Formula {
	var best *entities.Formula
	for _, f := range candidates {
		if f == nil {
			continue
		}
		if best == nil ||
			f.Version > best.Version ||
			(f.Version == best.Version && f.ID < best.ID) {
			best = f
		}
	}
	return best
}
