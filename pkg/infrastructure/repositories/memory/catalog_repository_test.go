package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
)

func newCatalog(t *testing.T) *CatalogRepository {
	repo := NewCatalogRepository(4, 4)
	err := repo.LoadCatalog(services.Catalog{
		Materials: []entities.Material{
			{ID: "M1", Name: "Sugar", Category: entities.CategoryRaw},
			{ID: "M2", Name: "Jar", Category: entities.CategoryPackaging},
		},
		Formulas: []entities.Formula{
			{ID: "F1", Name: "Jam", Version: 1},
			{ID: "F3", Name: "Jam", Version: 3},
			{ID: "F2", Name: "Jam Deluxe", Version: 3},
		},
		Products: []entities.Product{
			{ID: "P1", Name: "Strawberry Jam", FormulaID: "F3"},
			{ID: "P2", Name: "Jam Sampler"},
		},
		Items: []entities.FormulaItem{
			{ID: "I1", FormulaID: "F3", Material: entities.Material{ID: "M1"}, QtyPerUnit: decimal.NewFromInt(2), UOM: "kg"},
			{ID: "I2", FormulaID: "F3", Material: entities.Material{ID: "M2"}, QtyPerUnit: decimal.NewFromInt(1), UOM: "ea"},
			{ID: "I3", FormulaID: "F3", Material: entities.Material{ID: "M-UNREGISTERED", Name: "Salt"}, QtyPerUnit: decimal.NewFromInt(1)},
		},
	})
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return repo
}

func TestCatalogRepository_GetProduct(t *testing.T) {
	repo := newCatalog(t)

	product, err := repo.GetProduct(context.Background(), "P1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.FormulaID != "F3" {
		t.Errorf("unexpected product %+v", product)
	}

	product.Name = "mutated"
	again, _ := repo.GetProduct(context.Background(), "P1")
	if again.Name != "Strawberry Jam" {
		t.Error("returned product must be a copy")
	}

	if _, err := repo.GetProduct(context.Background(), "P9"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogRepository_FindFormulasByName(t *testing.T) {
	repo := newCatalog(t)

	formulas, err := repo.FindFormulasByName(context.Background(), "JAM")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}

	var ids []string
	for _, f := range formulas {
		ids = append(ids, f.ID)
	}
	want := []string{"F2", "F3", "F1"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected %v, got %v", want, ids)
			break
		}
	}

	none, _ := repo.FindFormulasByName(context.Background(), "")
	if len(none) != 0 {
		t.Errorf("empty pattern should match nothing, got %d", len(none))
	}
}

func TestCatalogRepository_FindProductsByName(t *testing.T) {
	repo := newCatalog(t)

	products, _ := repo.FindProductsByName(context.Background(), "jam")
	if len(products) != 2 {
		t.Errorf("expected 2 products, got %d", len(products))
	}
}

func TestCatalogRepository_GetFormulaItemsAnnotated(t *testing.T) {
	repo := newCatalog(t)

	items, err := repo.GetFormulaItems(context.Background(), "F3")
	if err != nil {
		t.Fatalf("get items failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Material.Name != "Sugar" {
		t.Errorf("expected item annotated from material registry, got %+v", items[0].Material)
	}
	if items[1].Material.Category != entities.CategoryPackaging {
		t.Errorf("expected packaging category, got %s", items[1].Material.Category)
	}
	if items[2].Material.Name != "Salt" {
		t.Errorf("unregistered material should keep its own name")
	}

	empty, err := repo.GetFormulaItems(context.Background(), "F1")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no items for F1, got %d (%v)", len(empty), err)
	}
}

func TestCatalogRepository_Catalog(t *testing.T) {
	catalog := newCatalog(t).Catalog()
	if len(catalog.Materials) != 2 || catalog.Materials[0].ID != "M1" {
		t.Errorf("unexpected materials %+v", catalog.Materials)
	}
	if len(catalog.Items) != 3 || len(catalog.Formulas) != 3 || len(catalog.Products) != 2 {
		t.Errorf("unexpected catalog sizes %d/%d/%d", len(catalog.Items), len(catalog.Formulas), len(catalog.Products))
	}
}
