package repositories

import (
	"context"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// CatalogRepository provides read-only access to products, formulas and formula items
type CatalogRepository interface {
	// GetProduct returns ErrNotFound when no product carries the id.
	GetProduct(ctx context.Context, id string) (*entities.Product, error)

	// FindProductsByName returns products whose name contains the pattern, case-insensitively.
	FindProductsByName(ctx context.Context, pattern string) ([]*entities.Product, error)

	// GetFormula returns ErrNotFound when no formula carries the id.
	GetFormula(ctx context.Context, id string) (*entities.Formula, error)

	// FindFormulasByName returns formulas whose name contains the pattern,
	// ordered by version descending.
	FindFormulasByName(ctx context.Context, pattern string) ([]*entities.Formula, error)

	// GetFormulaItems returns the items of a formula annotated with their material.
	GetFormulaItems(ctx context.Context, formulaID string) ([]*entities.FormulaItem, error)
}
