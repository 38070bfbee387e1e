package events

import (
	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

const (
	RequirementsAggregatedEvent = "requirements.aggregated"
	CalculationCompletedEvent   = "calculation.completed"
	ShortageIdentifiedEvent     = "shortage.identified"

	RemediationOpenedEvent        = "remediation.opened"
	RemediationSubmittedEvent     = "remediation.submitted"
	RemediationDeferredEvent      = "remediation.deferred"
	RemediationTriggerFailedEvent = "remediation.trigger_failed"
	ClientMaterialRequestedEvent  = "client_material.requested"
)

type RequirementsAggregated struct {
	BatchID         string          `json:"batch_id"`
	RawCount        int             `json:"raw_count"`
	PackagingCount  int             `json:"packaging_count"`
	MissingFormulas int             `json:"missing_formulas"`
	TotalRequired   decimal.Decimal `json:"total_required"`
}

type CalculationCompleted struct {
	BatchID        string          `json:"batch_id"`
	Status         string          `json:"status"`
	Source         string          `json:"source"`
	TotalShortfall decimal.Decimal `json:"total_shortfall"`
}

type ShortageIdentified struct {
	BatchID string                 `json:"batch_id"`
	Line    entities.ShortfallLine `json:"line"`
}

type RemediationChanged struct {
	SessionID string                `json:"session_id"`
	BatchID   string                `json:"batch_id"`
	State     entities.SessionState `json:"state"`
	Triggers  []entities.Trigger    `json:"triggers,omitempty"`
	Error     string                `json:"error,omitempty"`
}

type ClientMaterialRequested struct {
	BatchID string                    `json:"batch_id"`
	Alerts  []entities.ShortfallAlert `json:"alerts"`
}

func NewRequirementsAggregatedEvent(batchID string, raw, packaging, missing int, total decimal.Decimal) Event {
	return NewEvent(RequirementsAggregatedEvent, batchID, RequirementsAggregated{
		BatchID:         batchID,
		RawCount:        raw,
		PackagingCount:  packaging,
		MissingFormulas: missing,
		TotalRequired:   total,
	})
}

func NewCalculationCompletedEvent(summary *entities.AllocationSummary) Event {
	return NewEvent(CalculationCompletedEvent, summary.BatchID, CalculationCompleted{
		BatchID:        summary.BatchID,
		Status:         summary.Status.String(),
		Source:         summary.Source,
		TotalShortfall: summary.TotalShortfall,
	})
}

func NewShortageIdentifiedEvent(batchID string, line entities.ShortfallLine) Event {
	return NewEvent(ShortageIdentifiedEvent, batchID, ShortageIdentified{BatchID: batchID, Line: line})
}

func NewRemediationEvent(eventType string, snapshot *entities.SessionSnapshot, triggers []entities.Trigger, err error) Event {
	data := RemediationChanged{
		SessionID: snapshot.ID,
		BatchID:   snapshot.BatchID,
		State:     snapshot.State,
		Triggers:  triggers,
	}
	if err != nil {
		data.Error = err.Error()
	}
	return NewEvent(eventType, snapshot.BatchID, data)
}

func NewClientMaterialRequestedEvent(batchID string, alerts []entities.ShortfallAlert) Event {
	return NewEvent(ClientMaterialRequestedEvent, batchID, ClientMaterialRequested{BatchID: batchID, Alerts: alerts})
}
