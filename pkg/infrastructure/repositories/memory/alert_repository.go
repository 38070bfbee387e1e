package memory

import (
	"context"
	"sync"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
)

// AlertRepository provides in-memory alert storage
type AlertRepository struct {
	mu     sync.Mutex
	alerts []entities.ShortfallAlert
}

// NewAlertRepository creates a new in-memory alert repository
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{}
}

// Verify interface compliance
var _ repositories.AlertRepository = (*AlertRepository)(nil)

// RecordAlerts appends alerts
func (r *AlertRepository) RecordAlerts(ctx context.Context, alerts []entities.ShortfallAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alerts...)
	return nil
}

// Alerts returns a copy of every recorded alert
func (r *AlertRepository) Alerts() []entities.ShortfallAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.ShortfallAlert(nil), r.alerts...)
}
