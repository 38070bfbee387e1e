package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
)

// StockRepository provides in-memory lot-controlled stock
type StockRepository struct {
	mu   sync.RWMutex
	lots []entities.StockLot
}

// NewStockRepository creates a new in-memory stock repository
func NewStockRepository() *StockRepository {
	return &StockRepository{
		lots: []entities.StockLot{},
	}
}

// Verify interface compliance
var (
	_ repositories.AvailabilityRepository = (*StockRepository)(nil)
	_ repositories.LotPicker              = (*StockRepository)(nil)
)

// LoadStockLots loads stock lots into the repository
func (r *StockRepository) LoadStockLots(lots []*entities.StockLot) error {
	for _, lot := range lots {
		r.AddStockLot(*lot)
	}
	return nil
}

// AddStockLot adds a stock lot to the repository
func (r *StockRepository) AddStockLot(lot entities.StockLot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lots = append(r.lots, lot)
}

// GetStockLots returns available lots for a material and owner, oldest
// receipt first and then by lot number
func (r *StockRepository) GetStockLots(materialID string, owner entities.StockOwner) []entities.StockLot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []entities.StockLot
	for _, lot := range r.lots {
		if lot.MaterialID == materialID && lot.Owner == owner && lot.Status == entities.Available {
			available = append(available, lot)
		}
	}
	sort.SliceStable(available, func(i, j int) bool {
		if !available[i].ReceiptDate.Equal(available[j].ReceiptDate) {
			return available[i].ReceiptDate.Before(available[j].ReceiptDate)
		}
		return available[i].LotNumber < available[j].LotNumber
	})

	return available
}

// PickLots draws qty from the owner's available lots, oldest first. The
// picks cover less than qty when stock runs out.
func (r *StockRepository) PickLots(ctx context.Context, materialID string, owner entities.StockOwner, qty decimal.Decimal) ([]entities.LotPick, error) {
	remaining := entities.CoerceQuantity(qty)
	var picks []entities.LotPick
	for _, lot := range r.GetStockLots(materialID, owner) {
		if !remaining.IsPositive() {
			break
		}
		take := entities.MinQuantity(lot.Quantity, remaining)
		if !take.IsPositive() {
			continue
		}
		picks = append(picks, entities.LotPick{
			MaterialID:  lot.MaterialID,
			LotNumber:   lot.LotNumber,
			Location:    lot.Location,
			Owner:       lot.Owner,
			ReceiptDate: lot.ReceiptDate,
			Quantity:    take,
		})
		remaining = remaining.Sub(take)
	}
	return picks, nil
}

// Snapshot sums available lots per material and owner. A nil or empty
// material list snapshots everything.
func (r *StockRepository) Snapshot(ctx context.Context, materialIDs []string) (*entities.AvailabilitySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var wanted map[string]bool
	if len(materialIDs) > 0 {
		wanted = make(map[string]bool, len(materialIDs))
		for _, id := range materialIDs {
			wanted[id] = true
		}
	}

	snapshot := entities.NewAvailabilitySnapshot()
	for _, lot := range r.lots {
		if lot.Status != entities.Available {
			continue
		}
		if wanted != nil && !wanted[lot.MaterialID] {
			continue
		}
		snapshot.Add(lot.MaterialID, lot.Owner, lot.Quantity)
	}
	snapshot.TakenAt = time.Now()

	return snapshot, nil
}
