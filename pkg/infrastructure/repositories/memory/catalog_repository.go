package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
)

// CatalogRepository provides in-memory product, formula and formula item storage
type CatalogRepository struct {
	mu          sync.RWMutex
	products    []entities.Product
	productsMap map[string]int
	formulas    []entities.Formula
	formulasMap map[string]int
	items       []entities.FormulaItem
	itemIndexes map[string][]int
	materials   map[string]entities.Material
}

// NewCatalogRepository creates an in-memory catalog sized for the expected data
func NewCatalogRepository(expectedFormulas, expectedItems int) *CatalogRepository {
	return &CatalogRepository{
		products:    make([]entities.Product, 0, expectedFormulas),
		productsMap: make(map[string]int, expectedFormulas),
		formulas:    make([]entities.Formula, 0, expectedFormulas),
		formulasMap: make(map[string]int, expectedFormulas),
		items:       make([]entities.FormulaItem, 0, expectedItems),
		itemIndexes: make(map[string][]int, expectedFormulas),
		materials:   make(map[string]entities.Material),
	}
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// AddProduct adds a product to the repository
func (r *CatalogRepository) AddProduct(product entities.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productsMap[product.ID] = len(r.products)
	r.products = append(r.products, product)
}

// AddFormula adds a formula to the repository
func (r *CatalogRepository) AddFormula(formula entities.Formula) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formulasMap[formula.ID] = len(r.formulas)
	r.formulas = append(r.formulas, formula)
}

// AddMaterial registers a material so later items can be annotated by id
func (r *CatalogRepository) AddMaterial(material entities.Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[material.Key()] = material
}

// AddFormulaItem adds a formula item. If the item only carries a material id,
// the registered material annotates it.
func (r *CatalogRepository) AddFormulaItem(item entities.FormulaItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if known, ok := r.materials[item.Material.Key()]; ok && item.Material.Name == "" {
		item.Material = known
	}
	index := len(r.items)
	r.items = append(r.items, item)
	r.itemIndexes[item.FormulaID] = append(r.itemIndexes[item.FormulaID], index)
}

// LoadCatalog loads a full catalog snapshot into the repository
func (r *CatalogRepository) LoadCatalog(catalog services.Catalog) error {
	for _, m := range catalog.Materials {
		r.AddMaterial(m)
	}
	for _, p := range catalog.Products {
		r.AddProduct(p)
	}
	for _, f := range catalog.Formulas {
		r.AddFormula(f)
	}
	for _, item := range catalog.Items {
		r.AddFormulaItem(item)
	}
	return nil
}

// Catalog returns a copy of everything stored, for validation
func (r *CatalogRepository) Catalog() services.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	catalog := services.Catalog{
		Products: append([]entities.Product(nil), r.products...),
		Formulas: append([]entities.Formula(nil), r.formulas...),
		Items:    append([]entities.FormulaItem(nil), r.items...),
	}
	for _, m := range r.materials {
		catalog.Materials = append(catalog.Materials, m)
	}
	sort.Slice(catalog.Materials, func(i, j int) bool {
		return catalog.Materials[i].Key() < catalog.Materials[j].Key()
	})
	return catalog
}

// GetProduct returns a product by id
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.productsMap[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	product := r.products[index]
	return &product, nil
}

// FindProductsByName returns products whose name contains the pattern
func (r *CatalogRepository) FindProductsByName(ctx context.Context, pattern string) ([]*entities.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(pattern))
	var products []*entities.Product
	for i := range r.products {
		if needle != "" && strings.Contains(strings.ToLower(r.products[i].Name), needle) {
			product := r.products[i]
			products = append(products, &product)
		}
	}
	return products, nil
}

// GetFormula returns a formula by id
func (r *CatalogRepository) GetFormula(ctx context.Context, id string) (*entities.Formula, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.formulasMap[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	formula := r.formulas[index]
	return &formula, nil
}

// FindFormulasByName returns formulas whose name contains the pattern, latest version first
func (r *CatalogRepository) FindFormulasByName(ctx context.Context, pattern string) ([]*entities.Formula, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(pattern))
	var formulas []*entities.Formula
	for i := range r.formulas {
		if needle != "" && strings.Contains(strings.ToLower(r.formulas[i].Name), needle) {
			formula := r.formulas[i]
			formulas = append(formulas, &formula)
		}
	}
	sort.SliceStable(formulas, func(i, j int) bool {
		if formulas[i].Version != formulas[j].Version {
			return formulas[i].Version > formulas[j].Version
		}
		return formulas[i].ID < formulas[j].ID
	})
	return formulas, nil
}

// GetFormulaItems returns the items of a formula in insertion order
func (r *CatalogRepository) GetFormulaItems(ctx context.Context, formulaID string) ([]*entities.FormulaItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes, exists := r.itemIndexes[formulaID]
	if !exists {
		return []*entities.FormulaItem{}, nil
	}

	items := make([]*entities.FormulaItem, 0, len(indexes))
	for _, index := range indexes {
		item := r.items[index]
		items = append(items, &item)
	}
	return items, nil
}
