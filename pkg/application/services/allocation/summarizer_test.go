package allocation

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFromRequirements_ClientMaterialShortfall(t *testing.T) {
	report := &dto.RequirementReport{
		BatchID: "B1",
		Raw: []entities.MaterialRequirement{
			{MaterialID: "M-OIL", MaterialName: "Client Oil", IsClientMaterial: true, RequiredQty: dec("25")},
		},
	}
	snapshot := entities.NewAvailabilitySnapshot()
	snapshot.Add("M-OIL", entities.OwnerClient, dec("10"))
	snapshot.Add("M-OIL", entities.OwnerInternal, dec("500"))

	summary := FromRequirements("B1", report, snapshot)
	if len(summary.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(summary.Lines))
	}
	line := summary.Lines[0]
	if !line.AllocatedQty.Equal(dec("10")) || !line.ShortfallQty.Equal(dec("15")) {
		t.Errorf("expected allocated 10 and shortfall 15, got %s and %s", line.AllocatedQty, line.ShortfallQty)
	}
	if summary.Status != entities.StatusPartial {
		t.Errorf("expected partial, got %s", summary.Status)
	}

	queues := Classify(summary)
	if len(queues.ClientRequests) != 1 || len(queues.PurchaseRequisitions) != 0 {
		t.Errorf("expected the line only in client requests, got %+v", queues)
	}
}

func TestFromRequirements_Status(t *testing.T) {
	tests := []struct {
		name      string
		available string
		want      entities.Status
	}{
		{"fully covered", "30", entities.StatusAllocated},
		{"partly covered", "5", entities.StatusPartial},
		{"nothing on hand", "0", entities.StatusBackordered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &dto.RequirementReport{
				Packaging: []entities.MaterialRequirement{
					{MaterialID: "M-JAR", MaterialName: "Jar", Category: entities.CategoryPackaging, RequiredQty: dec("20")},
				},
			}
			snapshot := entities.NewAvailabilitySnapshot()
			snapshot.Add("M-JAR", entities.OwnerInternal, dec(tt.available))

			summary := FromRequirements("B1", report, snapshot)
			if summary.Status != tt.want {
				t.Errorf("expected %s, got %s", tt.want, summary.Status)
			}
			if !summary.TotalRequired.Equal(summary.TotalAllocated.Add(summary.TotalShortfall)) {
				t.Errorf("totals do not reconcile: %+v", summary)
			}
			if summary.Lines[0].Category != entities.CategoryPackaging {
				t.Errorf("expected category to carry through")
			}
		})
	}
}

func TestFromRequirements_DoesNotMutateSnapshot(t *testing.T) {
	report := &dto.RequirementReport{
		Raw: []entities.MaterialRequirement{{MaterialID: "M1", MaterialName: "Sugar", RequiredQty: dec("4")}},
	}
	snapshot := entities.NewAvailabilitySnapshot()
	snapshot.Add("M1", entities.OwnerInternal, dec("10"))

	FromRequirements("B1", report, snapshot)
	if !snapshot.Available("M1", false).Equal(dec("10")) {
		t.Errorf("snapshot was modified: %s", snapshot.Available("M1", false))
	}
}

func TestFromRequirements_NilInputs(t *testing.T) {
	summary := FromRequirements("B1", nil, nil)
	if summary.Status != entities.StatusAllocated || len(summary.Lines) != 0 {
		t.Errorf("expected empty allocated summary, got %+v", summary)
	}

	report := &dto.RequirementReport{
		Raw: []entities.MaterialRequirement{{MaterialID: "M1", MaterialName: "Sugar", RequiredQty: dec("4")}},
	}
	summary = FromRequirements("B1", report, nil)
	if summary.Status != entities.StatusBackordered {
		t.Errorf("expected backordered without a snapshot, got %s", summary.Status)
	}
}

func TestClassify_EveryShortfallInExactlyOneQueue(t *testing.T) {
	client := entities.NewShortfallLine(entities.SubjectMaterial, "M1", "Client Oil", dec("5"), dec("1"))
	client.IsClientMaterial = true
	internal := entities.NewShortfallLine(entities.SubjectMaterial, "M2", "Sugar", dec("5"), dec("0"))
	covered := entities.NewShortfallLine(entities.SubjectMaterial, "M3", "Jar", dec("5"), dec("5"))

	queues := Classify(entities.NewAllocationSummary("B1", SourceSnapshot, []entities.ShortfallLine{client, internal, covered}))

	if len(queues.ClientRequests) != 1 || queues.ClientRequests[0].SubjectID != "M1" {
		t.Errorf("unexpected client requests %+v", queues.ClientRequests)
	}
	if len(queues.PurchaseRequisitions) != 1 || queues.PurchaseRequisitions[0].SubjectID != "M2" {
		t.Errorf("unexpected purchase requisitions %+v", queues.PurchaseRequisitions)
	}
}
