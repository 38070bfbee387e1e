package repositories

import (
	"context"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
)

// SessionStore persists remediation session drafts between requests
type SessionStore interface {
	// Save writes the snapshot only if its Version matches the stored one
	// (0 for a session never saved) and then advances snapshot.Version.
	// A stale snapshot is rejected with ErrVersionConflict.
	Save(ctx context.Context, snapshot *entities.SessionSnapshot) error
	// Load returns ErrNotFound for unknown sessions.
	Load(ctx context.Context, sessionID string) (*entities.SessionSnapshot, error)
	// AcquireLock takes the per-session edit lock. It returns false when
	// another caller holds it; the token is needed to release it.
	AcquireLock(ctx context.Context, sessionID string) (token string, ok bool, err error)
	// ReleaseLock drops the lock only if it is still held under token.
	ReleaseLock(ctx context.Context, sessionID, token string) error
}
