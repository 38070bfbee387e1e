package entities

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OrderLine is one ordered finished-good quantity within a batch
type OrderLine struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewOrderLine creates an order line, coercing the quantity with the zero-fill policy
func NewOrderLine(id, productID, productName string, quantity interface{}) OrderLine {
	return OrderLine{
		ID:          id,
		ProductID:   strings.TrimSpace(productID),
		ProductName: strings.TrimSpace(productName),
		Quantity:    CoerceQuantity(quantity),
	}
}

// ProductRef returns a stable key for the product the line references.
// Both id and name are part of it because an unknown id falls back to the name.
func (l OrderLine) ProductRef() string {
	name := "name:" + strings.ToLower(l.ProductName)
	switch {
	case l.ProductID == "":
		return name
	case l.ProductName == "":
		return "id:" + l.ProductID
	default:
		return "id:" + l.ProductID + "|" + name
	}
}

// DisplayName returns the best available human-readable product label
func (l OrderLine) DisplayName() string {
	if l.ProductName != "" {
		return l.ProductName
	}
	return l.ProductID
}
