package csv

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
	fixtures "github.com/newwavedigital/ERP-sub000/pkg/infrastructure/testing"
)

func TestLoader_LoadCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fixtures.WriteCatalogDir(dir))

	core, logs := observer.New(zap.WarnLevel)
	catalog, err := NewLoader(zap.New(core)).LoadCatalog(dir)
	require.NoError(t, err)

	assert.Len(t, catalog.Materials, 6)
	assert.Len(t, catalog.Formulas, 4)
	assert.Len(t, catalog.Items, 8)
	assert.Len(t, catalog.Products, 4)

	assert.Equal(t, entities.CategoryRaw, catalog.Materials[1].Category, "Raw Material maps to raw")
	assert.Equal(t, entities.CategoryPackaging, catalog.Materials[3].Category)
	assert.True(t, catalog.Materials[2].IsClientMaterial)
	assert.Equal(t, entities.CategoryRaw, catalog.Materials[5].Category, "unknown category defaults to raw")
	assert.Equal(t, 1, logs.FilterMessage("unknown material category, treating as raw").Len())

	assert.Equal(t, 1, catalog.Formulas[3].Version, "empty version defaults to 1")
	assert.True(t, catalog.Items[1].QtyPerUnit.Equal(decimal.RequireFromString("0.05")))
}

func TestLoader_CatalogFeedsMemoryRepository(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, fixtures.WriteCatalogDir(dir))

	catalog, err := NewLoader(nil).LoadCatalog(dir)
	require.NoError(t, err)

	repo := memory.NewCatalogRepository(len(catalog.Formulas), len(catalog.Items))
	require.NoError(t, repo.LoadCatalog(catalog))

	items, err := repo.GetFormulaItems(context.Background(), "F-RELISH-2")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Client Sunflower Oil", items[1].Material.Name)
	assert.True(t, items[1].Material.IsClientMaterial)
}

func TestLoader_LoadOrdersAndStock(t *testing.T) {
	dir := t.TempDir()
	orders, stock, err := fixtures.WriteScenario(dir)
	require.NoError(t, err)

	loader := NewLoader(nil)

	lines, err := loader.LoadOrders(orders)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "", lines[1].ProductID)
	assert.Equal(t, "Tomato Relish", lines[1].ProductName)
	assert.True(t, lines[0].Quantity.Equal(decimal.NewFromInt(10)))

	lots, err := loader.LoadStock(stock)
	require.NoError(t, err)
	require.Len(t, lots, 8)
	assert.Equal(t, entities.Quarantine, lots[2].Status)
	assert.Equal(t, entities.OwnerClient, lots[4].Owner)
}

func TestLoader_SoftQuantities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, fixtures.WriteFile(path, "line_id,product_id,product_name,quantity\n,P-JAM,,-3\nL9,P-JAM,,lots\n"))

	lines, err := NewLoader(nil).LoadOrders(path)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "L1", lines[0].ID, "missing line ids are generated")
	assert.True(t, lines[0].Quantity.IsZero())
	assert.True(t, lines[1].Quantity.IsZero())
}

func TestLoader_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"wrong header", "id,product,qty\n", "header mismatch"},
		{"short row", "line_id,product_id,product_name,quantity\nL1,P-JAM,10\n", "expected 4 columns"},
		{"empty file", "", "must have a header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readRecords(strings.NewReader(tt.content), "orders", ordersHeader)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := NewLoader(nil).LoadOrders(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestLoader_InvalidStockRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"bad date", "M1,LOT1,P,internal,5,03/01/2025,Available"},
		{"bad owner", "M1,LOT1,P,supplier,5,2025-03-01,Available"},
		{"bad status", "M1,LOT1,P,internal,5,2025-03-01,Lost"},
		{"missing lot", "M1,,P,internal,5,2025-03-01,Available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "stock.csv")
			require.NoError(t, fixtures.WriteFile(path, strings.Join(stockHeader, ",")+"\n"+tt.row+"\n"))
			_, err := NewLoader(nil).LoadStock(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateHeader_ByteOrderMark(t *testing.T) {
	assert.True(t, validateHeader([]string{"\ufeffLINE_ID", " product_id", "product_name", "quantity"}, ordersHeader))
}
