package remediation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/events"
)

// Service runs remediation sessions against a persistent draft store.
// Each call loads the session, applies one operation and saves it back.
type Service struct {
	store     repositories.SessionStore
	gateway   repositories.RemediationGateway
	alerts    repositories.AlertRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewService creates a remediation service. publisher and logger may be nil.
func NewService(
	store repositories.SessionStore,
	gateway repositories.RemediationGateway,
	alerts repositories.AlertRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		gateway:   gateway,
		alerts:    alerts,
		publisher: publisher,
		logger:    logger,
	}
}

// Open starts a session over the shortfall lines of a summary
func (s *Service) Open(ctx context.Context, summary *entities.AllocationSummary) (*entities.SessionSnapshot, error) {
	session := NewSession(summary)
	snap := session.Snapshot()
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", snap.ID, err)
	}

	s.logger.Info("remediation session opened",
		zap.String("session", snap.ID),
		zap.String("batch", snap.BatchID),
		zap.Int("lines", len(snap.Lines)))
	s.publish(events.NewRemediationEvent(events.RemediationOpenedEvent, snap, nil, nil))
	return snap, nil
}

// Get returns the stored draft of a session
func (s *Service) Get(ctx context.Context, sessionID string) (*entities.SessionSnapshot, error) {
	snap, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return snap, nil
}

// Choose records an action for one line of a stored session
func (s *Service) Choose(ctx context.Context, sessionID string, index int, action entities.Action) (*entities.SessionSnapshot, error) {
	var snap *entities.SessionSnapshot
	err := s.locked(ctx, sessionID, func() error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := session.Choose(index, action); err != nil {
			return err
		}

		snap = session.Snapshot()
		if err := s.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("failed to save session %s: %w", sessionID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Submit confirms a stored session. The session lock keeps concurrent
// edits out while triggers run, and each successful trigger is saved
// before the next one so a retry never repeats it.
func (s *Service) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	var (
		result    *SubmitResult
		submitErr error
		snap      *entities.SessionSnapshot
	)
	err := s.locked(ctx, sessionID, func() error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}

		result, submitErr = session.SubmitWithCheckpoint(ctx, s.gateway, func(cp *entities.SessionSnapshot) error {
			return s.checkpoint(ctx, cp)
		})
		if result == nil {
			return submitErr
		}

		snap = session.Snapshot()
		if err := s.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("failed to save session %s: %w", sessionID, errors.Join(err, submitErr))
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if submitErr != nil {
		s.logger.Error("remediation triggers failed",
			zap.String("session", sessionID),
			zap.Any("failed", result.Failed()),
			zap.Error(submitErr))
		s.publish(events.NewRemediationEvent(events.RemediationTriggerFailedEvent, snap, result.Failed(), submitErr))
		return result, submitErr
	}

	s.logger.Info("remediation session submitted", zap.String("session", sessionID))
	s.publish(events.NewRemediationEvent(events.RemediationSubmittedEvent, snap, snap.CompletedTriggers, nil))
	return result, nil
}

// checkpoint saves a trigger as completed. If another writer got in first
// the trigger is merged into the latest stored draft instead.
func (s *Service) checkpoint(ctx context.Context, snap *entities.SessionSnapshot) error {
	err := s.store.Save(ctx, snap)
	if !errors.Is(err, repositories.ErrVersionConflict) {
		return err
	}

	latest, loadErr := s.store.Load(ctx, snap.ID)
	if loadErr != nil {
		return errors.Join(err, loadErr)
	}
	latest.CompletedTriggers = mergeTriggers(latest.CompletedTriggers, snap.CompletedTriggers)
	if err := s.store.Save(ctx, latest); err != nil {
		return err
	}
	s.logger.Warn("session changed during submit, merged completed triggers",
		zap.String("session", snap.ID),
		zap.Int64("version", latest.Version))
	snap.Version = latest.Version
	return nil
}

func mergeTriggers(stored, completed []entities.Trigger) []entities.Trigger {
	seen := make(map[entities.Trigger]bool, len(stored)+len(completed))
	for _, t := range stored {
		seen[t] = true
	}
	for _, t := range completed {
		seen[t] = true
	}
	var merged []entities.Trigger
	for _, t := range []entities.Trigger{entities.TriggerProduction, entities.TriggerPurchase} {
		if seen[t] {
			merged = append(merged, t)
		}
	}
	return merged
}

// Defer closes a stored session, leaving alerts for every outstanding line
func (s *Service) Defer(ctx context.Context, sessionID string) ([]entities.ShortfallAlert, error) {
	var (
		recorded []entities.ShortfallAlert
		snap     *entities.SessionSnapshot
	)
	err := s.locked(ctx, sessionID, func() error {
		session, err := s.load(ctx, sessionID)
		if err != nil {
			return err
		}

		recorded, err = session.Defer(ctx, s.alerts)
		if err != nil {
			return err
		}

		snap = session.Snapshot()
		if err := s.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("failed to save session %s: %w", sessionID, err)
		}
		return nil
	})
	if err != nil {
		return recorded, err
	}

	s.logger.Info("remediation session deferred",
		zap.String("session", sessionID),
		zap.Int("alerts", len(recorded)))
	s.publish(events.NewRemediationEvent(events.RemediationDeferredEvent, snap, nil, nil))
	return recorded, nil
}

// locked runs fn while holding the session's edit lock
func (s *Service) locked(ctx context.Context, sessionID string, fn func() error) error {
	token, ok, err := s.store.AcquireLock(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to lock session %s: %w", sessionID, err)
	}
	if !ok {
		return fmt.Errorf("failed to lock session %s: %w", sessionID, ErrSessionBusy)
	}
	defer func() {
		if err := s.store.ReleaseLock(context.WithoutCancel(ctx), sessionID, token); err != nil {
			s.logger.Warn("failed to release session lock", zap.String("session", sessionID), zap.Error(err))
		}
	}()
	return fn()
}

// RequestClientMaterial records one client_request alert per client
// material line that is still short.
func (s *Service) RequestClientMaterial(ctx context.Context, summary *entities.AllocationSummary) ([]entities.ShortfallAlert, error) {
	if summary == nil {
		return nil, nil
	}

	now := time.Now()
	var requests []entities.ShortfallAlert
	for _, line := range summary.ShortfallLines() {
		if !line.IsClientMaterial {
			continue
		}
		requests = append(requests, entities.ShortfallAlert{
			ID:           uuid.NewString(),
			Kind:         entities.AlertClientRequest,
			BatchID:      summary.BatchID,
			SubjectKind:  line.SubjectKind,
			SubjectID:    line.SubjectID,
			SubjectName:  line.SubjectName,
			ShortfallQty: line.ShortfallQty,
			CreatedAt:    now,
		})
	}
	if len(requests) == 0 {
		return nil, nil
	}

	if err := s.alerts.RecordAlerts(ctx, requests); err != nil {
		return nil, fmt.Errorf("failed to record client requests for batch %s: %w", summary.BatchID, err)
	}
	s.publish(events.NewClientMaterialRequestedEvent(summary.BatchID, requests))
	return requests, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*Session, error) {
	snap, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return FromSnapshot(snap), nil
}

func (s *Service) publish(event events.Event) {
	if err := events.Publish(s.publisher, event); err != nil {
		s.logger.Warn("failed to publish event", zap.String("event", event.Type()), zap.Error(err))
	}
}
