package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
)

type storedSession struct {
	data    []byte
	version int64
}

// SessionStore keeps remediation session drafts in process memory
type SessionStore struct {
	mu        sync.Mutex
	snapshots map[string]storedSession
	locks     map[string]string
}

// NewSessionStore creates a new in-memory session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		snapshots: make(map[string]storedSession),
		locks:     make(map[string]string),
	}
}

// Verify interface compliance
var _ repositories.SessionStore = (*SessionStore)(nil)

// Save stores a copy of the snapshot if it is based on the current version
func (s *SessionStore) Save(ctx context.Context, snapshot *entities.SessionSnapshot) error {
	next := *snapshot
	next.Version = snapshot.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", snapshot.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current := s.snapshots[snapshot.ID].version; current != snapshot.Version {
		return fmt.Errorf("failed to save session %s at version %d (stored %d): %w",
			snapshot.ID, snapshot.Version, current, repositories.ErrVersionConflict)
	}
	s.snapshots[snapshot.ID] = storedSession{data: data, version: next.Version}
	snapshot.Version = next.Version
	return nil
}

// Load returns a copy of a stored snapshot
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*entities.SessionSnapshot, error) {
	s.mu.Lock()
	stored, exists := s.snapshots[sessionID]
	s.mu.Unlock()
	if !exists {
		return nil, repositories.ErrNotFound
	}

	var snapshot entities.SessionSnapshot
	if err := json.Unmarshal(stored.data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &snapshot, nil
}

// AcquireLock takes the edit lock for a session
func (s *SessionStore) AcquireLock(ctx context.Context, sessionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.locks[sessionID]; held {
		return "", false, nil
	}
	token := uuid.NewString()
	s.locks[sessionID] = token
	return token, true, nil
}

// ReleaseLock releases the edit lock if token still owns it
func (s *SessionStore) ReleaseLock(ctx context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[sessionID] == token {
		delete(s.locks, sessionID)
	}
	return nil
}
