package matcalc

import (
	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
)

// Catalog is the product, formula and material master data
type Catalog = services.Catalog

// Material is a raw material or packaging component
type Material = entities.Material

// Formula is a versioned recipe
type Formula = entities.Formula

// FormulaItem is one material line of a formula
type FormulaItem = entities.FormulaItem

// Product is a finished good that may link a formula
type Product = entities.Product

// OrderLine is one requested product quantity
type OrderLine = entities.OrderLine

// StockLot is material on hand
type StockLot = entities.StockLot

// RequirementReport is the aggregated raw and packaging requirement of a batch
type RequirementReport = dto.RequirementReport

// Result is a full calculation: requirements, shortfalls and remediation queues
type Result = dto.CalculationResult

// ValidationResult lists catalog consistency problems
type ValidationResult = services.ValidationResult

var (
	NewOrderLine   = entities.NewOrderLine
	NewFormulaItem = entities.NewFormulaItem
	NewStockLot    = entities.NewStockLot
)
