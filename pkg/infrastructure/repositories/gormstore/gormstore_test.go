package gormstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	testinghelpers "github.com/newwavedigital/ERP-sub000/pkg/application/services/testing"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/config"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seededCatalog(t *testing.T) *CatalogRepository {
	t.Helper()
	repo := NewCatalogRepository(setupTestDB(t), nil)
	require.NoError(t, repo.Import(context.Background(), testinghelpers.BuildPreservesCatalog().Catalog()))
	return repo
}

func TestCatalogRepository_GetProduct(t *testing.T) {
	repo := seededCatalog(t)
	ctx := context.Background()

	product, err := repo.GetProduct(ctx, "P-JAM")
	require.NoError(t, err)
	assert.Equal(t, "F-JAM", product.FormulaID)

	_, err = repo.GetProduct(ctx, "P-NOPE")
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestCatalogRepository_FindByName(t *testing.T) {
	repo := seededCatalog(t)
	ctx := context.Background()

	products, err := repo.FindProductsByName(ctx, "STRAWBERRY")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "P-JAM", products[0].ID)

	formulas, err := repo.FindFormulasByName(ctx, "tomato relish")
	require.NoError(t, err)
	require.Len(t, formulas, 2)
	assert.Equal(t, 2, formulas[0].Version, "latest version first")

	wildcard, err := repo.FindProductsByName(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, wildcard, "LIKE wildcards must be matched literally")

	empty, err := repo.FindFormulasByName(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCatalogRepository_GetFormulaItems(t *testing.T) {
	repo := seededCatalog(t)
	ctx := context.Background()

	items, err := repo.GetFormulaItems(ctx, "F-RELISH-2")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "FI-6", items[0].ID)
	assert.Equal(t, "Cane Sugar", items[0].Material.Name)
	assert.True(t, items[0].QtyPerUnit.Equal(decimal.NewFromInt(1)))

	assert.True(t, items[1].Material.IsClientMaterial)
	assert.Equal(t, entities.CategoryPackaging, items[2].Material.Category)

	none, err := repo.GetFormulaItems(ctx, "F-EMPTY")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCatalogRepository_UnknownCategoryIsRaw(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCatalogRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&Formula{ID: "F1", Name: "Mystery", Version: 1}).Error)
	require.NoError(t, db.Create(&Material{ID: "M1", Name: "Glitter", Category: "sparkly"}).Error)
	require.NoError(t, db.Create(&FormulaItem{ID: "I1", FormulaID: "F1", MaterialID: "M1", QtyPerUnit: decimal.NewFromInt(2)}).Error)
	require.NoError(t, db.Create(&FormulaItem{ID: "I2", FormulaID: "F1", MaterialID: "M-ORPHAN", MaterialName: "Orphan", QtyPerUnit: decimal.NewFromInt(1), Position: 1}).Error)

	items, err := repo.GetFormulaItems(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entities.CategoryRaw, items[0].Material.Category)
	assert.Equal(t, "Orphan", items[1].Material.Name)
}

func TestAlertRepository_RecordAndList(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	alerts := []entities.ShortfallAlert{
		{ID: "A1", Kind: entities.AlertDeferredShortfall, BatchID: "B1", SessionID: "S1", SubjectKind: entities.SubjectMaterial, SubjectName: "Sugar", ShortfallQty: decimal.NewFromInt(15), Suggestion: "purchase", CreatedAt: now},
		{ID: "A2", Kind: entities.AlertClientRequest, BatchID: "B1", SubjectKind: entities.SubjectMaterial, SubjectName: "Client Oil", ShortfallQty: decimal.RequireFromString("1.5"), CreatedAt: now.Add(time.Minute)},
		{ID: "A3", Kind: entities.AlertClientRequest, BatchID: "B2", SubjectName: "Other", CreatedAt: now},
	}
	require.NoError(t, repo.RecordAlerts(ctx, alerts))
	require.NoError(t, repo.RecordAlerts(ctx, nil))

	stored, err := repo.ListByBatch(ctx, "B1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "A1", stored[0].ID)
	assert.True(t, stored[1].ShortfallQty.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, entities.AlertClientRequest, stored[1].Kind)

	assert.Error(t, repo.RecordAlerts(ctx, alerts[:1]), "duplicate ids must fail")
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: "file:open_test?mode=memory&cache=shared", AutoMigrate: true}, nil)
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&ShortfallAlert{}))

	_, err = Open(config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
