package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

func mustLot(t *testing.T, materialID, lotNumber string, owner entities.StockOwner, qty int64, day int, status entities.InventoryStatus) *entities.StockLot {
	t.Helper()
	lot, err := entities.NewStockLot(materialID, lotNumber, "PLANT-1", owner, decimal.NewFromInt(qty),
		time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC), status)
	if err != nil {
		t.Fatalf("failed to create lot: %v", err)
	}
	return lot
}

func newStock(t *testing.T) *StockRepository {
	repo := NewStockRepository()
	err := repo.LoadStockLots([]*entities.StockLot{
		mustLot(t, "M1", "LOT-B", entities.OwnerInternal, 30, 5, entities.Available),
		mustLot(t, "M1", "LOT-A", entities.OwnerInternal, 20, 1, entities.Available),
		mustLot(t, "M1", "LOT-Q", entities.OwnerInternal, 99, 1, entities.Quarantine),
		mustLot(t, "M1", "LOT-C", entities.OwnerClient, 7, 2, entities.Available),
		mustLot(t, "M2", "LOT-D", entities.OwnerInternal, 4, 2, entities.Available),
	})
	if err != nil {
		t.Fatalf("failed to load lots: %v", err)
	}
	return repo
}

func TestStockRepository_GetStockLotsFIFO(t *testing.T) {
	repo := newStock(t)

	lots := repo.GetStockLots("M1", entities.OwnerInternal)
	if len(lots) != 2 {
		t.Fatalf("expected 2 available internal lots, got %d", len(lots))
	}
	if lots[0].LotNumber != "LOT-A" || lots[1].LotNumber != "LOT-B" {
		t.Errorf("expected oldest receipt first, got %s then %s", lots[0].LotNumber, lots[1].LotNumber)
	}
}

func TestStockRepository_PickLots(t *testing.T) {
	repo := newStock(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		materialID string
		owner      entities.StockOwner
		qty        int64
		want       []string
		wantQty    []int64
	}{
		{"oldest lot first", "M1", entities.OwnerInternal, 15, []string{"LOT-A"}, []int64{15}},
		{"spills into next lot", "M1", entities.OwnerInternal, 35, []string{"LOT-A", "LOT-B"}, []int64{20, 15}},
		{"capped by stock, quarantine skipped", "M1", entities.OwnerInternal, 80, []string{"LOT-A", "LOT-B"}, []int64{20, 30}},
		{"client pool separate", "M1", entities.OwnerClient, 5, []string{"LOT-C"}, []int64{5}},
		{"nothing requested", "M1", entities.OwnerInternal, 0, nil, nil},
		{"unknown material", "M9", entities.OwnerInternal, 3, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			picks, err := repo.PickLots(ctx, tt.materialID, tt.owner, decimal.NewFromInt(tt.qty))
			if err != nil {
				t.Fatalf("pick failed: %v", err)
			}
			if len(picks) != len(tt.want) {
				t.Fatalf("expected %d picks, got %+v", len(tt.want), picks)
			}
			for i, p := range picks {
				if p.LotNumber != tt.want[i] || !p.Quantity.Equal(decimal.NewFromInt(tt.wantQty[i])) {
					t.Errorf("pick %d: want %s x %d, got %s x %s", i, tt.want[i], tt.wantQty[i], p.LotNumber, p.Quantity)
				}
				if p.Owner != tt.owner {
					t.Errorf("pick %d drew from the wrong pool", i)
				}
			}
		})
	}
}

func TestStockRepository_SameDayLotsByNumber(t *testing.T) {
	repo := NewStockRepository()
	_ = repo.LoadStockLots([]*entities.StockLot{
		mustLot(t, "M1", "LOT-2", entities.OwnerInternal, 5, 3, entities.Available),
		mustLot(t, "M1", "LOT-1", entities.OwnerInternal, 5, 3, entities.Available),
	})

	picks, _ := repo.PickLots(context.Background(), "M1", entities.OwnerInternal, decimal.NewFromInt(6))
	if len(picks) != 2 || picks[0].LotNumber != "LOT-1" {
		t.Errorf("expected same-day lots in lot number order, got %+v", picks)
	}
}

func TestStockRepository_Snapshot(t *testing.T) {
	repo := newStock(t)

	snapshot, err := repo.Snapshot(context.Background(), []string{"M1"})
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !snapshot.Available("M1", false).Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected 50 internal, got %s", snapshot.Available("M1", false))
	}
	if !snapshot.Available("M1", true).Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected 7 client, got %s", snapshot.Available("M1", true))
	}
	if !snapshot.Available("M2", false).IsZero() {
		t.Errorf("unrequested material should be absent")
	}

	all, _ := repo.Snapshot(context.Background(), nil)
	if !all.Available("M2", false).Equal(decimal.NewFromInt(4)) {
		t.Errorf("nil material list should snapshot everything")
	}
}
