package services

import (
	"fmt"
	"sort"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// Catalog is a complete in-memory view of the catalog used for validation
type Catalog struct {
	Products  []entities.Product
	Formulas  []entities.Formula
	Items     []entities.FormulaItem
	Materials []entities.Material
}

// ValidationResult contains the results of catalog validation
type ValidationResult struct {
	DuplicateItems   []entities.FormulaItem
	OrphanedItems    []entities.FormulaItem
	EmptyFormulas    []string
	UnlinkedProducts []string
	Errors           []string
	Warnings         []string
}

// Valid reports whether validation found no errors
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// FormulaValidator checks the consistency of products, formulas and formula items
type FormulaValidator struct{}

// NewFormulaValidator creates a new formula validator
func NewFormulaValidator() *FormulaValidator {
	return &FormulaValidator{}
}

// Validate performs consistency validation on a catalog
func (v *FormulaValidator) Validate(catalog Catalog) *ValidationResult {
	result := &ValidationResult{
		DuplicateItems:   make([]entities.FormulaItem, 0),
		OrphanedItems:    make([]entities.FormulaItem, 0),
		EmptyFormulas:    make([]string, 0),
		UnlinkedProducts: make([]string, 0),
		Errors:           make([]string, 0),
		Warnings:         make([]string, 0),
	}

	formulas := make(map[string]entities.Formula, len(catalog.Formulas))
	versions := make(map[string]string)
	for _, f := range catalog.Formulas {
		if _, exists := formulas[f.ID]; exists {
			result.Errors = append(result.Errors, fmt.Sprintf("duplicate formula id %s", f.ID))
			continue
		}
		formulas[f.ID] = f

		versionKey := fmt.Sprintf("%s|%d", f.Name, f.Version)
		if other, exists := versions[versionKey]; exists {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("formulas %s and %s share name %q and version %d", other, f.ID, f.Name, f.Version))
		} else {
			versions[versionKey] = f.ID
		}
	}

	for _, p := range catalog.Products {
		if p.FormulaID == "" {
			continue
		}
		if _, exists := formulas[p.FormulaID]; !exists {
			result.UnlinkedProducts = append(result.UnlinkedProducts, p.ID)
			result.Errors = append(result.Errors,
				fmt.Sprintf("product %s links unknown formula %s", p.ID, p.FormulaID))
		}
	}

	result.OrphanedItems = v.detectOrphanedItems(catalog, formulas)
	for _, item := range result.OrphanedItems {
		result.Errors = append(result.Errors,
			fmt.Sprintf("formula item %s references unknown formula %s or material %s",
				item.ID, item.FormulaID, item.Material.Key()))
	}

	result.DuplicateItems = v.detectDuplicateItems(catalog.Items)
	if len(result.DuplicateItems) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("found %d formula items repeating a material within the same formula", len(result.DuplicateItems)))
	}

	itemCounts := make(map[string]int)
	for _, item := range catalog.Items {
		itemCounts[item.FormulaID]++
		if item.QtyPerUnit.IsZero() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("formula item %s has zero quantity per unit", item.ID))
		}
	}
	for id := range formulas {
		if itemCounts[id] == 0 {
			result.EmptyFormulas = append(result.EmptyFormulas, id)
		}
	}
	sort.Strings(result.EmptyFormulas)
	for _, id := range result.EmptyFormulas {
		result.Warnings = append(result.Warnings, fmt.Sprintf("formula %s has no items", id))
	}

	return result
}

// detectOrphanedItems finds items whose formula or material is not in the catalog
func (v *FormulaValidator) detectOrphanedItems(catalog Catalog, formulas map[string]entities.Formula) []entities.FormulaItem {
	orphaned := make([]entities.FormulaItem, 0)

	// Material checks only apply when a material master was supplied
	materials := make(map[string]bool, len(catalog.Materials))
	for _, m := range catalog.Materials {
		materials[m.Key()] = true
	}

	for _, item := range catalog.Items {
		_, formulaKnown := formulas[item.FormulaID]
		materialKnown := len(materials) == 0 || materials[item.Material.Key()]
		if !formulaKnown || !materialKnown {
			orphaned = append(orphaned, item)
		}
	}

	return orphaned
}

// detectDuplicateItems finds items repeating the same material within a formula
func (v *FormulaValidator) detectDuplicateItems(items []entities.FormulaItem) []entities.FormulaItem {
	seen := make(map[string]bool)
	duplicates := make([]entities.FormulaItem, 0)

	for _, item := range items {
		key := fmt.Sprintf("%s|%s", item.FormulaID, item.Material.Key())
		if seen[key] {
			duplicates = append(duplicates, item)
		} else {
			seen[key] = true
		}
	}

	return duplicates
}
