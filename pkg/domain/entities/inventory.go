package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryStatus represents the status of a stock lot
type InventoryStatus int

const (
	Available InventoryStatus = iota
	Reserved
	Quarantine
)

// String method for InventoryStatus enum
func (s InventoryStatus) String() string {
	switch s {
	case Available:
		return "Available"
	case Reserved:
		return "Reserved"
	case Quarantine:
		return "Quarantine"
	default:
		return "Unknown"
	}
}

// ParseInventoryStatus maps a status string onto an InventoryStatus; empty means available
func ParseInventoryStatus(s string) (InventoryStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "available":
		return Available, nil
	case "reserved", "allocated":
		return Reserved, nil
	case "quarantine":
		return Quarantine, nil
	default:
		return Available, fmt.Errorf("invalid status: %s (expected: Available, Reserved, or Quarantine)", s)
	}
}

// StockOwner says whether a lot belongs to the client or to internal stock
type StockOwner int

const (
	OwnerInternal StockOwner = iota
	OwnerClient
)

// String method for StockOwner enum
func (o StockOwner) String() string {
	if o == OwnerClient {
		return "client"
	}
	return "internal"
}

// MarshalText encodes the owner as its lowercase name
func (o StockOwner) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an owner name
func (o *StockOwner) UnmarshalText(text []byte) error {
	parsed, err := ParseStockOwner(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseStockOwner maps an owner string onto a StockOwner; empty means internal
func ParseStockOwner(s string) (StockOwner, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "internal":
		return OwnerInternal, nil
	case "client":
		return OwnerClient, nil
	default:
		return OwnerInternal, fmt.Errorf("invalid owner: %s (expected: internal or client)", s)
	}
}

// StockLot represents lot-controlled material on hand
type StockLot struct {
	MaterialID  string
	LotNumber   string
	Location    string
	Owner       StockOwner
	Quantity    decimal.Decimal
	ReceiptDate time.Time
	Status      InventoryStatus
}

// NewStockLot creates a validated StockLot
func NewStockLot(materialID, lotNumber, location string, owner StockOwner, quantity decimal.Decimal, receiptDate time.Time, status InventoryStatus) (*StockLot, error) {
	if materialID == "" {
		return nil, fmt.Errorf("material id cannot be empty")
	}
	if lotNumber == "" {
		return nil, fmt.Errorf("lot number cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("quantity cannot be negative, got %s", quantity)
	}

	return &StockLot{
		MaterialID:  materialID,
		LotNumber:   lotNumber,
		Location:    location,
		Owner:       owner,
		Quantity:    quantity,
		ReceiptDate: receiptDate,
		Status:      status,
	}, nil
}

// LotPick is the quantity drawn from one lot to cover an allocated material
type LotPick struct {
	MaterialID  string          `json:"material_id"`
	LotNumber   string          `json:"lot_number"`
	Location    string          `json:"location,omitempty"`
	Owner       StockOwner      `json:"owner"`
	ReceiptDate time.Time       `json:"receipt_date"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AvailabilitySnapshot is supply on hand partitioned by ownership
type AvailabilitySnapshot struct {
	Client   map[string]decimal.Decimal `json:"client"`
	Internal map[string]decimal.Decimal `json:"internal"`
	TakenAt  time.Time                  `json:"taken_at"`
}

// NewAvailabilitySnapshot creates an empty snapshot
func NewAvailabilitySnapshot() *AvailabilitySnapshot {
	return &AvailabilitySnapshot{
		Client:   make(map[string]decimal.Decimal),
		Internal: make(map[string]decimal.Decimal),
		TakenAt:  time.Now(),
	}
}

// Add records available quantity for a material under the given owner
func (s *AvailabilitySnapshot) Add(materialID string, owner StockOwner, qty decimal.Decimal) {
	pool := s.Internal
	if owner == OwnerClient {
		pool = s.Client
	}
	pool[materialID] = pool[materialID].Add(CoerceQuantity(qty))
}

// Available returns the quantity in the pool a material draws from
func (s *AvailabilitySnapshot) Available(materialID string, isClientMaterial bool) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	if isClientMaterial {
		return s.Client[materialID]
	}
	return s.Internal[materialID]
}

// Consume removes quantity from the pool a material draws from, never below zero
func (s *AvailabilitySnapshot) Consume(materialID string, isClientMaterial bool, qty decimal.Decimal) {
	pool := s.Internal
	if isClientMaterial {
		pool = s.Client
	}
	left := pool[materialID].Sub(qty)
	if left.IsNegative() {
		left = decimal.Zero
	}
	pool[materialID] = left
}
