package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/config"
)

// SessionStore keeps remediation session drafts in redis so any API
// replica can serve a session. The edit lock is a SET NX key holding a
// random token, with a TTL so a crashed holder cannot block a session forever.
type SessionStore struct {
	client     redis.UniversalClient
	prefix     string
	sessionTTL time.Duration
	lockTTL    time.Duration
}

// NewSessionStore wraps an existing client
func NewSessionStore(client redis.UniversalClient, prefix string, sessionTTL, lockTTL time.Duration) *SessionStore {
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &SessionStore{
		client:     client,
		prefix:     prefix,
		sessionTTL: sessionTTL,
		lockTTL:    lockTTL,
	}
}

// NewClient builds a redis client from configuration
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

var _ repositories.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *SessionStore) lockKey(id string) string {
	return s.prefix + "session:" + id + ":lock"
}

// Save writes the snapshot inside a WATCH transaction so a writer that
// read an older version loses the race instead of overwriting.
func (s *SessionStore) Save(ctx context.Context, snapshot *entities.SessionSnapshot) error {
	next := *snapshot
	next.Version = snapshot.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", snapshot.ID, err)
	}

	key := s.sessionKey(snapshot.ID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != snapshot.Version {
			return repositories.ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.sessionTTL)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, repositories.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("failed to store session %s at version %d: %w", snapshot.ID, snapshot.Version, repositories.ErrVersionConflict)
	case err != nil:
		return fmt.Errorf("failed to store session %s: %w", snapshot.ID, err)
	}
	snapshot.Version = next.Version
	return nil
}

func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, err
	}
	return head.Version, nil
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (*entities.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch session %s: %w", sessionID, err)
	}

	var snapshot entities.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &snapshot, nil
}

// releaseLock deletes the lock key only while it still holds our token
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *SessionStore) AcquireLock(ctx context.Context, sessionID string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.lockKey(sessionID), token, s.lockTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock for session %s: %w", sessionID, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (s *SessionStore) ReleaseLock(ctx context.Context, sessionID, token string) error {
	if err := releaseLock.Run(ctx, s.client, []string{s.lockKey(sessionID)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock for session %s: %w", sessionID, err)
	}
	return nil
}
