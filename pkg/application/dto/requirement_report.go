package dto

import (
	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// RequirementReport is the output of exploding and aggregating a batch
type RequirementReport struct {
	BatchID         string                         `json:"batch_id"`
	Raw             []entities.MaterialRequirement `json:"raw"`
	Packaging       []entities.MaterialRequirement `json:"packaging"`
	Breakdown       []entities.LineExplosion       `json:"breakdown"`
	MissingFormulas []entities.MissingFormula      `json:"missing_formulas"`
}

// Complete reports whether every order line was exploded
func (r *RequirementReport) Complete() bool {
	return len(r.MissingFormulas) == 0
}

// Requirements returns raw requirements followed by packaging requirements
func (r *RequirementReport) Requirements() []entities.MaterialRequirement {
	all := make([]entities.MaterialRequirement, 0, len(r.Raw)+len(r.Packaging))
	all = append(all, r.Raw...)
	all = append(all, r.Packaging...)
	return all
}

// MaterialIDs returns the ids of every aggregated material
func (r *RequirementReport) MaterialIDs() []string {
	ids := make([]string, 0, len(r.Raw)+len(r.Packaging))
	for _, req := range r.Requirements() {
		ids = append(ids, req.MaterialID)
	}
	return ids
}

// TotalRequired sums required quantity across both buckets
func (r *RequirementReport) TotalRequired() decimal.Decimal {
	total := decimal.Zero
	for _, req := range r.Requirements() {
		total = total.Add(req.RequiredQty)
	}
	return total
}

// CalculationResult is a full materials calculator run for a batch
type CalculationResult struct {
	Report  *RequirementReport          `json:"report"`
	Summary *entities.AllocationSummary `json:"summary"`
	Queues  entities.RemediationQueues  `json:"queues"`
	// LotPicks names the lots covering allocated materials, oldest first
	LotPicks []entities.LotPick `json:"lot_picks,omitempty"`
}
