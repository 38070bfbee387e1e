package allocation

import (
	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// SourceSnapshot marks summaries computed from an availability snapshot
const SourceSnapshot = "snapshot"

// FromRequirements reconciles aggregated requirements against a supply snapshot.
// Client materials draw only from client-owned stock, all others only from
// internal stock.
func FromRequirements(batchID string, report *dto.RequirementReport, snapshot *entities.AvailabilitySnapshot) *entities.AllocationSummary {
	if report == nil {
		return entities.NewAllocationSummary(batchID, SourceSnapshot, nil)
	}

	// Working copy so a material listed twice can never be allocated twice
	remaining := entities.NewAvailabilitySnapshot()
	if snapshot != nil {
		for id, qty := range snapshot.Client {
			remaining.Add(id, entities.OwnerClient, qty)
		}
		for id, qty := range snapshot.Internal {
			remaining.Add(id, entities.OwnerInternal, qty)
		}
	}

	requirements := report.Requirements()
	lines := make([]entities.ShortfallLine, 0, len(requirements))
	for _, req := range requirements {
		available := remaining.Available(req.MaterialID, req.IsClientMaterial)
		line := entities.NewShortfallLine(entities.SubjectMaterial, req.MaterialID, req.MaterialName, req.RequiredQty, available)
		line.Category = req.Category
		line.UOM = req.UOM
		line.IsClientMaterial = req.IsClientMaterial
		remaining.Consume(req.MaterialID, req.IsClientMaterial, line.AllocatedQty)

		lines = append(lines, line)
	}

	return entities.NewAllocationSummary(batchID, SourceSnapshot, lines)
}

// Classify partitions every shortfall into exactly one remediation queue:
// client materials go to client requests, everything else to purchase
// requisitions.
func Classify(summary *entities.AllocationSummary) entities.RemediationQueues {
	queues := entities.RemediationQueues{
		ClientRequests:       []entities.ShortfallLine{},
		PurchaseRequisitions: []entities.ShortfallLine{},
	}
	if summary == nil {
		return queues
	}

	for _, line := range summary.ShortfallLines() {
		if line.IsClientMaterial {
			queues.ClientRequests = append(queues.ClientRequests, line)
		} else {
			queues.PurchaseRequisitions = append(queues.PurchaseRequisitions, line)
		}
	}
	return queues
}
