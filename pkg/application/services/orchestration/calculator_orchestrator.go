package orchestration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/aggregator"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/allocation"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/events"
)

// ErrNoAllocationGateway is returned by AllocateOrder when no external
// allocation procedure is configured
var ErrNoAllocationGateway = errors.New("no allocation gateway configured")

// CalculatorOrchestrator coordinates requirement aggregation with supply
// reconciliation and shortfall classification
type CalculatorOrchestrator struct {
	aggregator   *aggregator.Aggregator
	availability repositories.AvailabilityRepository
	allocation   repositories.AllocationGateway
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewCalculatorOrchestrator creates a new calculator orchestrator.
// availability, allocation and publisher may be nil.
func NewCalculatorOrchestrator(
	agg *aggregator.Aggregator,
	availability repositories.AvailabilityRepository,
	allocationGateway repositories.AllocationGateway,
	publisher events.Publisher,
	logger *zap.Logger,
) *CalculatorOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculatorOrchestrator{
		aggregator:   agg,
		availability: availability,
		allocation:   allocationGateway,
		publisher:    publisher,
		logger:       logger,
	}
}

// Requirements explodes and aggregates a batch without reconciling supply
func (o *CalculatorOrchestrator) Requirements(ctx context.Context, batchID string, lines []entities.OrderLine) (*dto.RequirementReport, error) {
	report, err := o.aggregator.Aggregate(ctx, batchID, lines)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate requirements for batch %s: %w", batchID, err)
	}

	o.publish(events.NewRequirementsAggregatedEvent(batchID,
		len(report.Raw), len(report.Packaging), len(report.MissingFormulas), report.TotalRequired()))
	return report, nil
}

// Calculate runs aggregation, takes an availability snapshot for the
// aggregated materials, reconciles and classifies the shortfalls.
func (o *CalculatorOrchestrator) Calculate(ctx context.Context, batchID string, lines []entities.OrderLine) (*dto.CalculationResult, error) {
	// Step 1: explode and aggregate
	report, err := o.Requirements(ctx, batchID, lines)
	if err != nil {
		return nil, err
	}

	// Step 2: supply snapshot
	snapshot := entities.NewAvailabilitySnapshot()
	if o.availability != nil {
		snapshot, err = o.availability.Snapshot(ctx, report.MaterialIDs())
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot availability for batch %s: %w", batchID, err)
		}
	}

	// Step 3: reconcile and classify
	summary := allocation.FromRequirements(batchID, report, snapshot)
	result := &dto.CalculationResult{
		Report:  report,
		Summary: summary,
		Queues:  allocation.Classify(summary),
	}

	// Step 4: name the lots behind each allocation when stock is lot-controlled
	if picker, ok := o.availability.(repositories.LotPicker); ok {
		result.LotPicks, err = pickLots(ctx, picker, summary)
		if err != nil {
			return nil, fmt.Errorf("failed to pick lots for batch %s: %w", batchID, err)
		}
	}

	o.logger.Info("batch calculated",
		zap.String("batch", batchID),
		zap.Int("order_lines", len(lines)),
		zap.Int("missing_formulas", len(report.MissingFormulas)),
		zap.String("status", summary.Status.String()),
		zap.String("total_shortfall", summary.TotalShortfall.String()))
	o.announce(summary)

	return result, nil
}

// AllocateOrder invokes the external allocation procedure and normalizes
// its response. The result carries no requirement report.
func (o *CalculatorOrchestrator) AllocateOrder(ctx context.Context, orderID string) (*dto.CalculationResult, error) {
	if o.allocation == nil {
		return nil, fmt.Errorf("failed to allocate order %s: %w", orderID, ErrNoAllocationGateway)
	}

	response, err := o.allocation.AllocateOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order %s: %w", orderID, err)
	}

	summary := allocation.Normalize(orderID, response)
	if summary.Source == allocation.SourceNone {
		o.logger.Warn("allocation response carried no line records", zap.String("order", orderID))
	}
	if summary.UpstreamStatus != "" && summary.UpstreamStatus != summary.Status.String() {
		o.logger.Debug("upstream status disagrees with derived status",
			zap.String("order", orderID),
			zap.String("upstream", summary.UpstreamStatus),
			zap.String("derived", summary.Status.String()))
	}
	o.announce(summary)

	return &dto.CalculationResult{
		Summary: summary,
		Queues:  allocation.Classify(summary),
	}, nil
}

func (o *CalculatorOrchestrator) announce(summary *entities.AllocationSummary) {
	o.publish(events.NewCalculationCompletedEvent(summary))
	for _, line := range summary.ShortfallLines() {
		o.publish(events.NewShortageIdentifiedEvent(summary.BatchID, line))
	}
}

func (o *CalculatorOrchestrator) publish(event events.Event) {
	if err := events.Publish(o.publisher, event); err != nil {
		o.logger.Warn("failed to publish event", zap.String("event", event.Type()), zap.Error(err))
	}
}

func pickLots(ctx context.Context, picker repositories.LotPicker, summary *entities.AllocationSummary) ([]entities.LotPick, error) {
	var picks []entities.LotPick
	for _, line := range summary.Lines {
		if line.SubjectKind != entities.SubjectMaterial || !line.AllocatedQty.IsPositive() {
			continue
		}
		owner := entities.OwnerInternal
		if line.IsClientMaterial {
			owner = entities.OwnerClient
		}
		lots, err := picker.PickLots(ctx, line.SubjectID, owner, line.AllocatedQty)
		if err != nil {
			return nil, err
		}
		picks = append(picks, lots...)
	}
	return picks, nil
}
