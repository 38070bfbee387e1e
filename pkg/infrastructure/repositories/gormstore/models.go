package gormstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// Product is the products table
type Product struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:255;index"`
	FormulaID   string `gorm:"size:64"`
	FormulaName string `gorm:"size:255"`
}

func (Product) TableName() string { return "products" }

func (p Product) toEntity() *entities.Product {
	return &entities.Product{ID: p.ID, Name: p.Name, FormulaID: p.FormulaID, FormulaName: p.FormulaName}
}

// Formula is the formulas table
type Formula struct {
	ID      string `gorm:"primaryKey;size:64"`
	Name    string `gorm:"size:255;index"`
	Version int
}

func (Formula) TableName() string { return "formulas" }

func (f Formula) toEntity() *entities.Formula {
	return &entities.Formula{ID: f.ID, Name: f.Name, Version: f.Version}
}

// Material is the materials table. Category is kept as the raw string so
// unknown values survive a round trip.
type Material struct {
	ID               string `gorm:"primaryKey;size:64"`
	Name             string `gorm:"size:255"`
	Category         string `gorm:"size:32"`
	IsClientMaterial bool
}

func (Material) TableName() string { return "materials" }

// FormulaItem is the formula_items table
type FormulaItem struct {
	ID           string          `gorm:"primaryKey;size:64"`
	FormulaID    string          `gorm:"size:64;index"`
	MaterialID   string          `gorm:"size:64"`
	MaterialName string          `gorm:"size:255"`
	QtyPerUnit   decimal.Decimal `gorm:"type:numeric"`
	UOM          string          `gorm:"size:16"`
	Position     int
}

func (FormulaItem) TableName() string { return "formula_items" }

// ShortfallAlert is the shortfall_alerts table
type ShortfallAlert struct {
	ID           string          `gorm:"primaryKey;size:64"`
	Kind         string          `gorm:"size:32;index"`
	BatchID      string          `gorm:"size:64;index"`
	SessionID    string          `gorm:"size:64"`
	SubjectKind  string          `gorm:"size:16"`
	SubjectID    string          `gorm:"size:64"`
	SubjectName  string          `gorm:"size:255"`
	ShortfallQty decimal.Decimal `gorm:"type:numeric"`
	Suggestion   string          `gorm:"size:32"`
	CreatedAt    time.Time
}

func (ShortfallAlert) TableName() string { return "shortfall_alerts" }

func alertFromEntity(a entities.ShortfallAlert) ShortfallAlert {
	return ShortfallAlert{
		ID:           a.ID,
		Kind:         string(a.Kind),
		BatchID:      a.BatchID,
		SessionID:    a.SessionID,
		SubjectKind:  string(a.SubjectKind),
		SubjectID:    a.SubjectID,
		SubjectName:  a.SubjectName,
		ShortfallQty: a.ShortfallQty,
		Suggestion:   a.Suggestion,
		CreatedAt:    a.CreatedAt,
	}
}

func (a ShortfallAlert) toEntity() entities.ShortfallAlert {
	return entities.ShortfallAlert{
		ID:           a.ID,
		Kind:         entities.AlertKind(a.Kind),
		BatchID:      a.BatchID,
		SessionID:    a.SessionID,
		SubjectKind:  entities.SubjectKind(a.SubjectKind),
		SubjectID:    a.SubjectID,
		SubjectName:  a.SubjectName,
		ShortfallQty: a.ShortfallQty,
		Suggestion:   a.Suggestion,
		CreatedAt:    a.CreatedAt,
	}
}

// AllModels lists every table for migration
func AllModels() []interface{} {
	return []interface{}{&Product{}, &Formula{}, &Material{}, &FormulaItem{}, &ShortfallAlert{}}
}
