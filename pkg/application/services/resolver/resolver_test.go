package resolver

import (
	"context"
	"errors"
	"testing"

	testinghelpers "github.com/newwavedigital/ERP-sub000/pkg/application/services/testing"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(testinghelpers.BuildPreservesCatalog())

	tests := []struct {
		name        string
		line        entities.OrderLine
		wantFormula string
		wantMatched string
		wantReason  entities.MissingReason
		wantItems   int
	}{
		{
			name:        "direct link",
			line:        entities.NewOrderLine("L1", "P-JAM", "", 1),
			wantFormula: "F-JAM",
			wantMatched: "link",
			wantItems:   4,
		},
		{
			name:        "name fallback picks highest version",
			line:        entities.NewOrderLine("L2", "P-RELISH", "", 1),
			wantFormula: "F-RELISH-2",
			wantMatched: "name",
			wantItems:   3,
		},
		{
			name:        "product by exact name",
			line:        entities.NewOrderLine("L3", "", "strawberry JAM 250g", 1),
			wantFormula: "F-JAM",
			wantMatched: "link",
			wantItems:   4,
		},
		{
			name:        "product by approximate name",
			line:        entities.NewOrderLine("L4", "", "Strawberry Jam", 1),
			wantFormula: "F-JAM",
			wantMatched: "link",
			wantItems:   4,
		},
		{
			name:       "unknown product",
			line:       entities.NewOrderLine("L5", "P-NOPE", "Nothing Like It", 1),
			wantReason: entities.ReasonProductNotFound,
		},
		{
			name:       "broken link without name match",
			line:       entities.NewOrderLine("L6", "P-BROKEN", "", 1),
			wantReason: entities.ReasonFormulaNotFound,
		},
		{
			name:        "formula without items",
			line:        entities.NewOrderLine("L7", "P-EMPTY", "", 1),
			wantFormula: "F-EMPTY",
			wantMatched: "link",
			wantReason:  entities.ReasonFormulaEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(context.Background(), tt.line)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.wantFormula == "" {
				if res.Formula != nil {
					t.Errorf("expected no formula, got %s", res.Formula.ID)
				}
			} else if res.Formula == nil || res.Formula.ID != tt.wantFormula {
				t.Fatalf("expected formula %s, got %+v", tt.wantFormula, res.Formula)
			}
			if res.Matched != tt.wantMatched {
				t.Errorf("expected matched %q, got %q", tt.wantMatched, res.Matched)
			}
			if res.Reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, res.Reason)
			}
			if len(res.Items) != tt.wantItems {
				t.Errorf("expected %d items, got %d", tt.wantItems, len(res.Items))
			}
			if res.Resolved() != (tt.wantItems > 0) {
				t.Errorf("unexpected Resolved() = %v", res.Resolved())
			}
		})
	}
}

func TestResolver_ItemsAnnotatedWithMaterial(t *testing.T) {
	r := NewResolver(testinghelpers.BuildPreservesCatalog())

	res, err := r.Resolve(context.Background(), entities.NewOrderLine("L1", "P-RELISH", "", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, item := range res.Items {
		if item.Material.Name == "" {
			t.Errorf("item %s has no material name", item.ID)
		}
		if item.Material.ID == testinghelpers.ClientOil && !item.Material.IsClientMaterial {
			t.Errorf("client oil should be flagged as client material")
		}
	}
}

type failingCatalog struct {
	repositories.CatalogRepository
}

func (failingCatalog) GetProduct(ctx context.Context, id string) (*entities.Product, error) {
	return nil, errors.New("connection reset")
}

func TestResolver_CatalogFailureIsAnError(t *testing.T) {
	r := NewResolver(failingCatalog{})

	_, err := r.Resolve(context.Background(), entities.NewOrderLine("L1", "P-JAM", "", 1))
	if err == nil {
		t.Fatal("expected catalog failure to surface as an error")
	}
	if errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("catalog failure must not look like not-found: %v", err)
	}
}

func TestPickLatestFormula(t *testing.T) {
	candidates := []*entities.Formula{
		{ID: "F-B", Version: 3},
		nil,
		{ID: "F-A", Version: 3},
		{ID: "F-C", Version: 1},
	}
	if got := pickLatestFormula(candidates); got.ID != "F-A" {
		t.Errorf("expected F-A, got %s", got.ID)
	}
	if got := pickLatestFormula(nil); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
