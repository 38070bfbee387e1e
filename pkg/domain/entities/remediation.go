package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the remediation choice made for a shortfall line
type Action int

const (
	ActionNone Action = iota
	ActionProduction
	ActionPurchase
	ActionSkip
)

// String method for Action enum
func (a Action) String() string {
	switch a {
	case ActionProduction:
		return "production"
	case ActionPurchase:
		return "purchase"
	case ActionSkip:
		return "skip"
	default:
		return ""
	}
}

// MarshalText encodes the action as its lowercase name
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action; empty text means no action chosen
func (a *Action) UnmarshalText(text []byte) error {
	if strings.TrimSpace(string(text)) == "" {
		*a = ActionNone
		return nil
	}
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction maps a caller-supplied action string onto an Action
func ParseAction(raw string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production":
		return ActionProduction, nil
	case "purchase":
		return ActionPurchase, nil
	case "skip":
		return ActionSkip, nil
	default:
		return ActionNone, fmt.Errorf("unknown remediation action %q", raw)
	}
}

// ActionFromSuggestion proposes an action from an upstream suggestion
func ActionFromSuggestion(s Suggestion) Action {
	switch s {
	case SuggestionProduction:
		return ActionProduction
	case SuggestionPurchase:
		return ActionPurchase
	default:
		return ActionNone
	}
}

// AlertKind distinguishes the follow-up records written for planners
type AlertKind string

const (
	AlertDeferredShortfall AlertKind = "deferred_shortfall"
	AlertClientRequest     AlertKind = "client_request"
)

// ShortfallAlert is one follow-up record for an outstanding shortfall line
type ShortfallAlert struct {
	ID           string          `json:"id"`
	Kind         AlertKind       `json:"kind"`
	BatchID      string          `json:"batch_id"`
	SessionID    string          `json:"session_id,omitempty"`
	SubjectKind  SubjectKind     `json:"subject_kind"`
	SubjectID    string          `json:"subject_id,omitempty"`
	SubjectName  string          `json:"subject_name"`
	ShortfallQty decimal.Decimal `json:"shortfall_qty"`
	Suggestion   string          `json:"suggestion,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LineState tracks a session line through remediation
type LineState string

const (
	LineUnresolved   LineState = "unresolved"
	LineActionChosen LineState = "action_chosen"
	LineConfirmed    LineState = "confirmed"
)

// SessionState tracks a remediation session as a whole
type SessionState string

const (
	SessionOpen      SessionState = "open"
	SessionSubmitted SessionState = "submitted"
	SessionDeferred  SessionState = "deferred"
)

// Trigger names the batch-level remote operations a session may invoke
type Trigger string

const (
	TriggerProduction Trigger = "production"
	TriggerPurchase   Trigger = "purchase"
)

// SessionLineSnapshot is the persisted form of one session line
type SessionLineSnapshot struct {
	Line   ShortfallLine `json:"line"`
	Action Action        `json:"action"`
	State  LineState     `json:"state"`
}

// SessionSnapshot is the persisted form of a remediation session draft
type SessionSnapshot struct {
	ID                string                `json:"id"`
	BatchID           string                `json:"batch_id"`
	State             SessionState          `json:"state"`
	Lines             []SessionLineSnapshot `json:"lines"`
	CompletedTriggers []Trigger             `json:"completed_triggers,omitempty"`
	Version           int64                 `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}
