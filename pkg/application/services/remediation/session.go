package remediation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
)

var (
	ErrAlreadySubmitted  = errors.New("remediation session already submitted")
	ErrSessionClosed     = errors.New("remediation session is closed")
	ErrIncompleteSession = errors.New("remediation session has lines without an action")
	ErrTriggerFailed     = errors.New("remediation trigger failed")
	ErrSessionBusy       = errors.New("remediation session is being changed by another request")
	ErrLineOutOfRange    = errors.New("remediation line index out of range")
	ErrNoGateway         = errors.New("no remediation gateway configured")
)

// Checkpoint persists a session snapshot mid-submit. It must advance
// snapshot.Version when it succeeds.
type Checkpoint func(snapshot *entities.SessionSnapshot) error

// TriggerOutcome is the result of one batch-level remote operation
type TriggerOutcome struct {
	Trigger entities.Trigger `json:"trigger"`
	Skipped bool             `json:"skipped,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// SubmitResult reports each trigger attempted by a submit
type SubmitResult struct {
	SessionID string                `json:"session_id"`
	State     entities.SessionState `json:"state"`
	Outcomes  []TriggerOutcome      `json:"outcomes"`
}

// Failed lists the triggers that returned an error
func (r *SubmitResult) Failed() []entities.Trigger {
	var failed []entities.Trigger
	for _, o := range r.Outcomes {
		if o.Error != "" {
			failed = append(failed, o.Trigger)
		}
	}
	return failed
}

type sessionLine struct {
	line   entities.ShortfallLine
	action entities.Action
	state  entities.LineState
}

// Session is a planner's draft of remediation choices for one batch.
// All methods are safe for concurrent use; Submit and Defer serialize.
type Session struct {
	mu        sync.Mutex
	id        string
	batchID   string
	state     entities.SessionState
	lines     []sessionLine
	completed map[entities.Trigger]bool
	version   int64
	createdAt time.Time
	updatedAt time.Time
	now       func() time.Time
}

// NewSession opens a session over the shortfall lines of a summary.
// Lines start with the upstream suggestion as their proposed action.
func NewSession(summary *entities.AllocationSummary) *Session {
	now := time.Now()
	s := &Session{
		id:        uuid.NewString(),
		state:     entities.SessionOpen,
		completed: make(map[entities.Trigger]bool),
		createdAt: now,
		updatedAt: now,
		now:       time.Now,
	}
	if summary == nil {
		return s
	}

	s.batchID = summary.BatchID
	for _, line := range summary.ShortfallLines() {
		sl := sessionLine{line: line, state: entities.LineUnresolved}
		if action := entities.ActionFromSuggestion(line.Suggestion); action != entities.ActionNone {
			sl.action = action
			sl.state = entities.LineActionChosen
		}
		s.lines = append(s.lines, sl)
	}
	return s
}

// FromSnapshot restores a persisted session
func FromSnapshot(snap *entities.SessionSnapshot) *Session {
	s := &Session{
		id:        snap.ID,
		batchID:   snap.BatchID,
		state:     snap.State,
		completed: make(map[entities.Trigger]bool),
		version:   snap.Version,
		createdAt: snap.CreatedAt,
		updatedAt: snap.UpdatedAt,
		now:       time.Now,
	}
	for _, l := range snap.Lines {
		s.lines = append(s.lines, sessionLine{line: l.Line, action: l.Action, state: l.State})
	}
	for _, t := range snap.CompletedTriggers {
		s.completed[t] = true
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) BatchID() string {
	return s.batchID
}

func (s *Session) State() entities.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the persistable form of the session
func (s *Session) Snapshot() *entities.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *entities.SessionSnapshot {
	snap := &entities.SessionSnapshot{
		ID:        s.id,
		BatchID:   s.batchID,
		State:     s.state,
		Lines:     make([]entities.SessionLineSnapshot, 0, len(s.lines)),
		Version:   s.version,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	for _, l := range s.lines {
		snap.Lines = append(snap.Lines, entities.SessionLineSnapshot{Line: l.line, Action: l.action, State: l.state})
	}
	for _, t := range []entities.Trigger{entities.TriggerProduction, entities.TriggerPurchase} {
		if s.completed[t] {
			snap.CompletedTriggers = append(snap.CompletedTriggers, t)
		}
	}
	return snap
}

// Choose records the planner's action for one line
func (s *Session) Choose(index int, action entities.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entities.SessionOpen {
		return fmt.Errorf("failed to choose action for session %s: %w", s.id, ErrSessionClosed)
	}
	if index < 0 || index >= len(s.lines) {
		return fmt.Errorf("failed to choose action for line %d: %w", index, ErrLineOutOfRange)
	}

	s.lines[index].action = action
	if action == entities.ActionNone {
		s.lines[index].state = entities.LineUnresolved
	} else {
		s.lines[index].state = entities.LineActionChosen
	}
	s.updatedAt = s.now()
	return nil
}

// Submit confirms every line and invokes each required trigger at most
// once. Triggers that already succeeded in an earlier attempt are not
// repeated. If any trigger fails the session stays open and the returned
// error wraps ErrTriggerFailed.
func (s *Session) Submit(ctx context.Context, gateway repositories.RemediationGateway) (*SubmitResult, error) {
	return s.SubmitWithCheckpoint(ctx, gateway, nil)
}

// SubmitWithCheckpoint is Submit with checkpoint called after each trigger
// that succeeds, before the next one runs. A checkpoint error stops the
// submit with the session open.
func (s *Session) SubmitWithCheckpoint(ctx context.Context, gateway repositories.RemediationGateway, checkpoint Checkpoint) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case entities.SessionSubmitted:
		return nil, ErrAlreadySubmitted
	case entities.SessionDeferred:
		return nil, fmt.Errorf("failed to submit session %s: %w", s.id, ErrSessionClosed)
	}

	needed := make(map[entities.Trigger]bool)
	for i, l := range s.lines {
		switch l.action {
		case entities.ActionNone:
			return nil, fmt.Errorf("failed to submit session %s, line %d: %w", s.id, i, ErrIncompleteSession)
		case entities.ActionProduction:
			needed[entities.TriggerProduction] = true
		case entities.ActionPurchase:
			needed[entities.TriggerPurchase] = true
		}
	}

	result := &SubmitResult{SessionID: s.id}
	var failures []error
	for _, trigger := range []entities.Trigger{entities.TriggerProduction, entities.TriggerPurchase} {
		if !needed[trigger] {
			continue
		}
		if s.completed[trigger] {
			result.Outcomes = append(result.Outcomes, TriggerOutcome{Trigger: trigger, Skipped: true})
			continue
		}

		outcome := TriggerOutcome{Trigger: trigger}
		if err := invoke(ctx, gateway, trigger, s.batchID); err != nil {
			outcome.Error = err.Error()
			failures = append(failures, fmt.Errorf("%s: %w", trigger, err))
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}
		s.completed[trigger] = true
		s.updatedAt = s.now()
		result.Outcomes = append(result.Outcomes, outcome)

		if checkpoint != nil {
			snap := s.snapshotLocked()
			if err := checkpoint(snap); err != nil {
				result.State = s.state
				return result, fmt.Errorf("failed to record %s trigger for session %s: %w", trigger, s.id, err)
			}
			s.version = snap.Version
		}
	}

	s.updatedAt = s.now()
	if len(failures) > 0 {
		result.State = s.state
		return result, fmt.Errorf("failed to submit session %s: %w: %w", s.id, ErrTriggerFailed, errors.Join(failures...))
	}

	for i := range s.lines {
		s.lines[i].state = entities.LineConfirmed
	}
	s.state = entities.SessionSubmitted
	result.State = s.state
	return result, nil
}

func invoke(ctx context.Context, gateway repositories.RemediationGateway, trigger entities.Trigger, orderID string) error {
	if gateway == nil {
		return ErrNoGateway
	}
	switch trigger {
	case entities.TriggerProduction:
		return gateway.GenerateProductionCoverage(ctx, orderID)
	case entities.TriggerPurchase:
		return gateway.GeneratePurchaseRequisitions(ctx, orderID)
	default:
		return fmt.Errorf("unknown trigger %q", trigger)
	}
}

// Defer writes one alert per outstanding shortfall line and closes the
// session. The session stays open if the alerts cannot be written.
func (s *Session) Defer(ctx context.Context, alerts repositories.AlertRepository) ([]entities.ShortfallAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != entities.SessionOpen {
		return nil, fmt.Errorf("failed to defer session %s: %w", s.id, ErrSessionClosed)
	}

	now := s.now()
	records := make([]entities.ShortfallAlert, 0, len(s.lines))
	for _, l := range s.lines {
		if !l.line.HasShortfall() {
			continue
		}
		suggestion := l.action.String()
		if suggestion == "" {
			suggestion = l.line.Suggestion.String()
		}
		records = append(records, entities.ShortfallAlert{
			ID:           uuid.NewString(),
			Kind:         entities.AlertDeferredShortfall,
			BatchID:      s.batchID,
			SessionID:    s.id,
			SubjectKind:  l.line.SubjectKind,
			SubjectID:    l.line.SubjectID,
			SubjectName:  l.line.SubjectName,
			ShortfallQty: l.line.ShortfallQty,
			Suggestion:   suggestion,
			CreatedAt:    now,
		})
	}

	if len(records) > 0 {
		if err := alerts.RecordAlerts(ctx, records); err != nil {
			return nil, fmt.Errorf("failed to record alerts for session %s: %w", s.id, err)
		}
	}

	s.state = entities.SessionDeferred
	s.updatedAt = now
	return records, nil
}
