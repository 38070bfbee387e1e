package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product represents a finished good that can be ordered
type Product struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	FormulaID   string `json:"formula_id,omitempty" yaml:"formula_id"`     // direct link, empty when absent
	FormulaName string `json:"formula_name,omitempty" yaml:"formula_name"` // denormalized hint
}

// HasFormulaLink reports whether the product carries a direct formula link
func (p *Product) HasFormulaLink() bool {
	return p.FormulaID != ""
}

// Formula is a versioned bill of materials
type Formula struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Version int    `json:"version" yaml:"version"`
}

// Ref returns the lightweight reference recorded in explosion breakdowns
func (f *Formula) Ref() *FormulaRef {
	if f == nil {
		return nil
	}
	return &FormulaRef{ID: f.ID, Name: f.Name, Version: f.Version}
}

// FormulaRef identifies the formula used for a line
type FormulaRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// String renders the reference as name@version
func (r FormulaRef) String() string {
	return fmt.Sprintf("%s@v%d", r.Name, r.Version)
}

// FormulaItem is one material line of a formula, annotated with its material
type FormulaItem struct {
	ID         string          `json:"id" yaml:"id"`
	FormulaID  string          `json:"formula_id" yaml:"formula_id"`
	Material   Material        `json:"material" yaml:"material"`
	QtyPerUnit decimal.Decimal `json:"qty_per_unit" yaml:"qty_per_unit"`
	UOM        string          `json:"uom" yaml:"uom"`
}

// NewFormulaItem creates a formula item with the quantity coerced to a non-negative decimal
func NewFormulaItem(id, formulaID string, material Material, qtyPerUnit interface{}, uom string) (*FormulaItem, error) {
	if formulaID == "" {
		return nil, fmt.Errorf("formula id cannot be empty")
	}
	if material.ID == "" && material.Name == "" {
		return nil, fmt.Errorf("formula item %s has no material reference", id)
	}

	return &FormulaItem{
		ID:         id,
		FormulaID:  formulaID,
		Material:   material,
		QtyPerUnit: CoerceQuantity(qtyPerUnit),
		UOM:        uom,
	}, nil
}
