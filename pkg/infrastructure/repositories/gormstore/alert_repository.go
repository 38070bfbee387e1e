package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
)

// AlertRepository stores shortfall alerts for planner follow-up
type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

var _ repositories.AlertRepository = (*AlertRepository)(nil)

// RecordAlerts writes every alert or none
func (r *AlertRepository) RecordAlerts(ctx context.Context, alerts []entities.ShortfallAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	rows := make([]ShortfallAlert, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, alertFromEntity(a))
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to record %d alerts: %w", len(rows), err)
	}
	return nil
}

// ListByBatch returns the alerts of a batch, oldest first
func (r *AlertRepository) ListByBatch(ctx context.Context, batchID string) ([]entities.ShortfallAlert, error) {
	var rows []ShortfallAlert
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	alerts := make([]entities.ShortfallAlert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toEntity())
	}
	return alerts, nil
}
