package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/application/services/aggregator"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/allocation"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/resolver"
	testinghelpers "github.com/newwavedigital/ERP-sub000/pkg/application/services/testing"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/events"
)

type stubAllocationGateway struct {
	response map[string]interface{}
	err      error
}

func (s stubAllocationGateway) AllocateOrder(ctx context.Context, orderID string) (map[string]interface{}, error) {
	return s.response, s.err
}

func newOrchestrator(gateway stubAllocationGateway, publisher events.Publisher) *CalculatorOrchestrator {
	agg := aggregator.NewAggregator(resolver.NewResolver(testinghelpers.BuildPreservesCatalog()), nil)
	return NewCalculatorOrchestrator(agg, testinghelpers.BuildPreservesStock(), gateway, publisher, nil)
}

func lineFor(lines []entities.ShortfallLine, id string) entities.ShortfallLine {
	for _, l := range lines {
		if l.SubjectID == id {
			return l
		}
	}
	return entities.ShortfallLine{}
}

func TestCalculatorOrchestrator_Calculate(t *testing.T) {
	eventStore := events.NewInMemoryEventStore(nil)
	o := newOrchestrator(stubAllocationGateway{}, eventStore)

	result, err := o.Calculate(context.Background(), "B1", testinghelpers.PreservesOrder())
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}

	sugar := lineFor(result.Summary.Lines, testinghelpers.Sugar)
	if !sugar.RequiredQty.Equal(decimal.NewFromInt(25)) || !sugar.AllocatedQty.Equal(decimal.NewFromInt(10)) || !sugar.ShortfallQty.Equal(decimal.NewFromInt(15)) {
		t.Errorf("unexpected sugar line %+v", sugar)
	}

	oil := lineFor(result.Summary.Lines, testinghelpers.ClientOil)
	if !oil.ShortfallQty.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("client oil must only draw client stock, got shortfall %s", oil.ShortfallQty)
	}

	if result.Summary.Status != entities.StatusPartial {
		t.Errorf("expected partial, got %s", result.Summary.Status)
	}
	if len(result.Queues.ClientRequests) != 1 || len(result.Queues.PurchaseRequisitions) != 1 {
		t.Errorf("unexpected queues %+v", result.Queues)
	}

	stream, _ := eventStore.ReadEvents("B1", 1)
	counts := map[string]int{}
	for _, e := range stream {
		counts[e.Type()]++
	}
	if counts[events.RequirementsAggregatedEvent] != 1 || counts[events.CalculationCompletedEvent] != 1 || counts[events.ShortageIdentifiedEvent] != 2 {
		t.Errorf("unexpected event counts %v", counts)
	}
}

func TestCalculatorOrchestrator_LotPicks(t *testing.T) {
	o := newOrchestrator(stubAllocationGateway{}, nil)

	result, err := o.Calculate(context.Background(), "B1", testinghelpers.PreservesOrder())
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}

	byMaterial := map[string][]entities.LotPick{}
	for _, p := range result.LotPicks {
		byMaterial[p.MaterialID] = append(byMaterial[p.MaterialID], p)
	}

	sugar := byMaterial[testinghelpers.Sugar]
	if len(sugar) != 2 || sugar[0].LotNumber != "SUG-001" || sugar[1].LotNumber != "SUG-002" {
		t.Fatalf("expected sugar drawn oldest lot first, got %+v", sugar)
	}
	if !sugar[0].Quantity.Equal(decimal.NewFromInt(6)) || !sugar[1].Quantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("unexpected sugar quantities %s and %s", sugar[0].Quantity, sugar[1].Quantity)
	}

	oil := byMaterial[testinghelpers.ClientOil]
	if len(oil) != 1 || oil[0].LotNumber != "OIL-001" || oil[0].Owner != entities.OwnerClient {
		t.Errorf("client oil must be picked from client lots only, got %+v", oil)
	}
}

func TestCalculatorOrchestrator_WithoutAvailability(t *testing.T) {
	agg := aggregator.NewAggregator(resolver.NewResolver(testinghelpers.BuildPreservesCatalog()), nil)
	o := NewCalculatorOrchestrator(agg, nil, nil, nil, nil)

	result, err := o.Calculate(context.Background(), "B1", testinghelpers.PreservesOrder())
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}
	if result.Summary.Status != entities.StatusBackordered {
		t.Errorf("expected backordered with no supply, got %s", result.Summary.Status)
	}

	if _, err := o.AllocateOrder(context.Background(), "O1"); !errors.Is(err, ErrNoAllocationGateway) {
		t.Error("expected an error without an allocation gateway")
	}
}

func TestCalculatorOrchestrator_AllocateOrder(t *testing.T) {
	gateway := stubAllocationGateway{response: map[string]interface{}{
		"status": "allocated",
		"lines": []interface{}{
			map[string]interface{}{"material_name": "Client Oil", "required_qty": 25.0, "allocated_qty": 10.0, "is_client_material": true},
			map[string]interface{}{"material_name": "Sugar", "required_qty": 4.0, "shortfall_qty": 4.0, "suggestion": "purchase"},
		},
	}}
	o := newOrchestrator(gateway, nil)

	result, err := o.AllocateOrder(context.Background(), "O1")
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if result.Report != nil {
		t.Errorf("expected no requirement report")
	}
	if result.Summary.Status != entities.StatusPartial || result.Summary.Source != "lines" {
		t.Errorf("unexpected summary %+v", result.Summary)
	}
	if len(result.Queues.ClientRequests) != 1 || len(result.Queues.PurchaseRequisitions) != 1 {
		t.Errorf("unexpected queues %+v", result.Queues)
	}
}

func TestCalculatorOrchestrator_AllocateOrderFailure(t *testing.T) {
	cause := errors.New("upstream 503")
	o := newOrchestrator(stubAllocationGateway{err: cause}, nil)

	if _, err := o.AllocateOrder(context.Background(), "O1"); !errors.Is(err, cause) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}

func TestCalculatorOrchestrator_EmptyResponse(t *testing.T) {
	o := newOrchestrator(stubAllocationGateway{response: map[string]interface{}{}}, nil)

	result, err := o.AllocateOrder(context.Background(), "O1")
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if result.Summary.Source != allocation.SourceNone || result.Summary.Status != entities.StatusAllocated {
		t.Errorf("unexpected summary %+v", result.Summary)
	}
}
