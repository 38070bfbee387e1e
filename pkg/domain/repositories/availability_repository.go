package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// AvailabilityRepository provides a point-in-time supply snapshot
type AvailabilityRepository interface {
	Snapshot(ctx context.Context, materialIDs []string) (*entities.AvailabilitySnapshot, error)
}

// LotPicker is implemented by lot-controlled stores that can name the lots
// covering an allocated quantity
type LotPicker interface {
	PickLots(ctx context.Context, materialID string, owner entities.StockOwner, qty decimal.Decimal) ([]entities.LotPick, error)
}
