package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
)

// CatalogRepository reads products, formulas and formula items from SQL
type CatalogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a gorm-backed catalog
func NewCatalogRepository(db *gorm.DB, logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{db: db, logger: logger}
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*entities.Product, error) {
	var product Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return product.toEntity(), nil
}

func (r *CatalogRepository) FindProductsByName(ctx context.Context, pattern string) ([]*entities.Product, error) {
	needle := likePattern(pattern)
	if needle == "" {
		return nil, nil
	}

	var rows []Product
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", needle).
		Order("name, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	products := make([]*entities.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toEntity())
	}
	return products, nil
}

func (r *CatalogRepository) GetFormula(ctx context.Context, id string) (*entities.Formula, error) {
	var formula Formula
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&formula).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return formula.toEntity(), nil
}

func (r *CatalogRepository) FindFormulasByName(ctx context.Context, pattern string) ([]*entities.Formula, error) {
	needle := likePattern(pattern)
	if needle == "" {
		return nil, nil
	}

	var rows []Formula
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", needle).
		Order("version DESC, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	formulas := make([]*entities.Formula, 0, len(rows))
	for _, row := range rows {
		formulas = append(formulas, row.toEntity())
	}
	return formulas, nil
}

// GetFormulaItems returns the items of a formula annotated with their
// materials. Items whose material row is missing keep their own name and
// default to raw.
func (r *CatalogRepository) GetFormulaItems(ctx context.Context, formulaID string) ([]*entities.FormulaItem, error) {
	var rows []FormulaItem
	err := r.db.WithContext(ctx).
		Where("formula_id = ?", formulaID).
		Order("position, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*entities.FormulaItem{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.MaterialID != "" {
			ids = append(ids, row.MaterialID)
		}
	}
	materials := make(map[string]Material, len(ids))
	if len(ids) > 0 {
		var found []Material
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
			return nil, err
		}
		for _, m := range found {
			materials[m.ID] = m
		}
	}

	items := make([]*entities.FormulaItem, 0, len(rows))
	for _, row := range rows {
		material := entities.Material{ID: row.MaterialID, Name: row.MaterialName}
		if m, ok := materials[row.MaterialID]; ok {
			material.Name = m.Name
			material.IsClientMaterial = m.IsClientMaterial
			category, known := entities.ParseCategory(m.Category)
			if !known {
				r.logger.Warn("unknown material category, treating as raw",
					zap.String("material", m.ID),
					zap.String("category", m.Category))
			}
			material.Category = category
		}
		items = append(items, &entities.FormulaItem{
			ID:         row.ID,
			FormulaID:  row.FormulaID,
			Material:   material,
			QtyPerUnit: entities.CoerceQuantity(row.QtyPerUnit),
			UOM:        row.UOM,
		})
	}
	return items, nil
}

// Import upserts a whole catalog in one transaction
func (r *CatalogRepository) Import(ctx context.Context, catalog services.Catalog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})

		for _, m := range catalog.Materials {
			row := Material{ID: m.ID, Name: m.Name, Category: m.Category.String(), IsClientMaterial: m.IsClientMaterial}
			if err := upsert.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import material %s: %w", m.ID, err)
			}
		}
		for _, f := range catalog.Formulas {
			row := Formula{ID: f.ID, Name: f.Name, Version: f.Version}
			if err := upsert.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import formula %s: %w", f.ID, err)
			}
		}
		for _, p := range catalog.Products {
			row := Product{ID: p.ID, Name: p.Name, FormulaID: p.FormulaID, FormulaName: p.FormulaName}
			if err := upsert.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import product %s: %w", p.ID, err)
			}
		}
		for i, item := range catalog.Items {
			row := FormulaItem{
				ID:           item.ID,
				FormulaID:    item.FormulaID,
				MaterialID:   item.Material.ID,
				MaterialName: item.Material.Name,
				QtyPerUnit:   item.QtyPerUnit,
				UOM:          item.UOM,
				Position:     i,
			}
			if row.ID == "" {
				row.ID = fmt.Sprintf("%s-%d", item.FormulaID, i+1)
			}
			if err := upsert.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import formula item %s: %w", row.ID, err)
			}
		}
		return nil
	})
}

// likePattern lowercases the search term and escapes LIKE wildcards
func likePattern(pattern string) string {
	p := strings.ToLower(strings.TrimSpace(pattern))
	if p == "" {
		return ""
	}
	p = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(p)
	return "%" + p + "%"
}
