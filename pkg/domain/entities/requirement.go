package entities

import "github.com/shopspring/decimal"

// MaterialRequirement is the aggregated quantity of one material needed by a batch
type MaterialRequirement struct {
	MaterialID       string          `json:"material_id"`
	MaterialName     string          `json:"material_name"`
	Category         Category        `json:"category"`
	UOM              string          `json:"uom"`
	IsClientMaterial bool            `json:"is_client_material"`
	RequiredQty      decimal.Decimal `json:"required_qty"`
}

// ExplodedItem is one formula item multiplied through an order line quantity
type ExplodedItem struct {
	MaterialID   string          `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Category     Category        `json:"category"`
	UOM          string          `json:"uom"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
	RequiredQty  decimal.Decimal `json:"required_qty"`
}

// LineExplosion is the audit trail for a single order line
type LineExplosion struct {
	OrderLineID string          `json:"order_line_id"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Formula     *FormulaRef     `json:"formula,omitempty"`
	Items       []ExplodedItem  `json:"items"`
}

// MissingReason explains why a line could not be exploded
type MissingReason string

const (
	ReasonProductNotFound MissingReason = "product_not_found"
	ReasonFormulaNotFound MissingReason = "formula_not_found"
	ReasonFormulaEmpty    MissingReason = "formula_empty"
)

// MissingFormula records an order line excluded from aggregation
type MissingFormula struct {
	OrderLineID string          `json:"order_line_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      MissingReason   `json:"reason"`
}
