package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the overall fulfillment status of a batch
type Status int

const (
	StatusAllocated Status = iota
	StatusPartial
	StatusBackordered
)

// String method for Status enum
func (s Status) String() string {
	switch s {
	case StatusAllocated:
		return "allocated"
	case StatusPartial:
		return "partial"
	case StatusBackordered:
		return "backordered"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its lowercase name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name. Unknown names are rejected.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, ok := ParseStatus(string(text))
	if !ok {
		return fmt.Errorf("unknown allocation status %q", string(text))
	}
	*s = parsed
	return nil
}

// ParseStatus maps an upstream status string onto a Status
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "allocated", "fully_allocated", "complete", "completed":
		return StatusAllocated, true
	case "partial", "partially_allocated", "partially-allocated":
		return StatusPartial, true
	case "backordered", "back_ordered", "backorder", "unallocated":
		return StatusBackordered, true
	default:
		return StatusPartial, false
	}
}

// DeriveStatus computes the status purely from totals
func DeriveStatus(totalAllocated, totalShortfall decimal.Decimal) Status {
	switch {
	case totalShortfall.IsZero():
		return StatusAllocated
	case totalAllocated.IsZero():
		return StatusBackordered
	default:
		return StatusPartial
	}
}

// Suggestion is the upstream remediation recommendation for a shortfall
type Suggestion int

const (
	SuggestionNone Suggestion = iota
	SuggestionProduction
	SuggestionPurchase
)

// String method for Suggestion enum
func (s Suggestion) String() string {
	switch s {
	case SuggestionProduction:
		return "production"
	case SuggestionPurchase:
		return "purchase"
	default:
		return ""
	}
}

// MarshalText encodes the suggestion as its lowercase name
func (s Suggestion) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a suggestion, defaulting unknown values to none
func (s *Suggestion) UnmarshalText(text []byte) error {
	*s = ParseSuggestion(string(text))
	return nil
}

// ParseSuggestion maps an upstream suggestion string onto a Suggestion
func ParseSuggestion(raw string) Suggestion {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "produce", "make":
		return SuggestionProduction
	case "purchase", "buy", "procure":
		return SuggestionPurchase
	default:
		return SuggestionNone
	}
}

// SubjectKind identifies what a shortfall line refers to
type SubjectKind string

const (
	SubjectMaterial SubjectKind = "material"
	SubjectProduct  SubjectKind = "product"
)

// ShortfallLine is one reconciled requirement against supply
type ShortfallLine struct {
	SubjectKind      SubjectKind     `json:"subject_kind"`
	SubjectID        string          `json:"subject_id,omitempty"`
	SubjectName      string          `json:"subject_name"`
	Category         Category        `json:"category"`
	UOM              string          `json:"uom,omitempty"`
	RequiredQty      decimal.Decimal `json:"required_qty"`
	AllocatedQty     decimal.Decimal `json:"allocated_qty"`
	ShortfallQty     decimal.Decimal `json:"shortfall_qty"`
	IsClientMaterial bool            `json:"is_client_material"`
	Suggestion       Suggestion      `json:"suggestion,omitempty"`
}

// NewShortfallLine builds a line whose quantities satisfy
// 0 <= allocated <= required and shortfall = required - allocated.
func NewShortfallLine(kind SubjectKind, id, name string, required, allocated decimal.Decimal) ShortfallLine {
	required = CoerceQuantity(required)
	allocated = MinQuantity(CoerceQuantity(allocated), required)

	return ShortfallLine{
		SubjectKind:  kind,
		SubjectID:    id,
		SubjectName:  name,
		RequiredQty:  required,
		AllocatedQty: allocated,
		ShortfallQty: required.Sub(allocated),
	}
}

// HasShortfall reports whether any quantity is still uncovered
func (l ShortfallLine) HasShortfall() bool {
	return l.ShortfallQty.IsPositive()
}

// AllocationSummary is the engine's principal output for a batch
type AllocationSummary struct {
	BatchID        string          `json:"batch_id"`
	Status         Status          `json:"status"`
	TotalRequired  decimal.Decimal `json:"total_required"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	TotalShortfall decimal.Decimal `json:"total_shortfall"`
	Lines          []ShortfallLine `json:"lines"`
	Source         string          `json:"source"`
	UpstreamStatus string          `json:"upstream_status,omitempty"`
}

// NewAllocationSummary recomputes totals and status from the lines.
// Upstream totals are never trusted.
func NewAllocationSummary(batchID, source string, lines []ShortfallLine) *AllocationSummary {
	summary := &AllocationSummary{
		BatchID:        batchID,
		Source:         source,
		TotalRequired:  decimal.Zero,
		TotalAllocated: decimal.Zero,
		TotalShortfall: decimal.Zero,
		Lines:          lines,
	}
	if summary.Lines == nil {
		summary.Lines = []ShortfallLine{}
	}

	for _, line := range summary.Lines {
		summary.TotalRequired = summary.TotalRequired.Add(line.RequiredQty)
		summary.TotalAllocated = summary.TotalAllocated.Add(line.AllocatedQty)
		summary.TotalShortfall = summary.TotalShortfall.Add(line.ShortfallQty)
	}
	summary.Status = DeriveStatus(summary.TotalAllocated, summary.TotalShortfall)

	return summary
}

// ShortfallLines returns only the lines with an uncovered quantity
func (s *AllocationSummary) ShortfallLines() []ShortfallLine {
	var out []ShortfallLine
	for _, line := range s.Lines {
		if line.HasShortfall() {
			out = append(out, line)
		}
	}
	return out
}

// RemediationQueues partitions shortfalls by remediation path
type RemediationQueues struct {
	ClientRequests       []ShortfallLine `json:"client_requests"`
	PurchaseRequisitions []ShortfallLine `json:"purchase_requisitions"`
}
