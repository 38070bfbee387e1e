package repositories

import (
	"context"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// AllocationGateway invokes the external allocation procedure for an order.
// The response shape is not fixed; callers normalize it.
type AllocationGateway interface {
	AllocateOrder(ctx context.Context, orderID string) (map[string]interface{}, error)
}

// RemediationGateway triggers the external shortage remediation procedures
type RemediationGateway interface {
	GenerateProductionCoverage(ctx context.Context, orderID string) error
	GeneratePurchaseRequisitions(ctx context.Context, orderID string) error
}

// AlertRepository records follow-up alerts for planners
type AlertRepository interface {
	RecordAlerts(ctx context.Context, alerts []entities.ShortfallAlert) error
}
