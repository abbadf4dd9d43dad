package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

const (
	defaultSessionPrefix      = "session"
	defaultSessionIndexPrefix = "user_sessions"
)

// SessionStore persists refresh sessions in Redis. Each session lives in a
// hash keyed by session identifier, and a per-user set indexes all live
// session identifiers so bulk revocation never scans the keyspace.
type SessionStore struct {
	client      *red.Client
	prefix      string
	indexPrefix string
}

// NewSessionStore constructs a Redis-backed session store.
func NewSessionStore(client *red.Client, keyPrefix, indexPrefix string) *SessionStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultSessionPrefix
	}

	index := strings.TrimSpace(indexPrefix)
	if index == "" {
		index = defaultSessionIndexPrefix
	}

	return &SessionStore{client: client, prefix: prefix, indexPrefix: index}
}

// Create stores the session hash and adds its identifier to the user index.
// Both writes share one transaction so the index never references a session
// that was not written.
func (s *SessionStore) Create(ctx context.Context, session domain.Session, ttl time.Duration) error {
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	key := s.key(session.ID)
	indexKey := s.indexKey(session.UserID)

	fields := map[string]any{
		"user_id":      session.UserID,
		"user_agent":   session.UserAgent,
		"ip_address":   session.IPAddress,
		"created_at":   session.CreatedAt.UTC().Format(time.RFC3339),
		"refresh_hash": session.RefreshHash,
	}

	_, err := s.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		pipe.SAdd(ctx, indexKey, session.ID)
		pipe.Expire(ctx, indexKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create session: %w", err)
	}

	return nil
}

// Get loads a session hash. Returns repository.ErrNotFound when the key has
// expired or was deleted.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	key := s.key(sessionID)
	if key == "" {
		return nil, fmt.Errorf("session id is required")
	}

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	session := &domain.Session{
		ID:          strings.TrimSpace(sessionID),
		UserID:      values["user_id"],
		UserAgent:   values["user_agent"],
		IPAddress:   values["ip_address"],
		RefreshHash: values["refresh_hash"],
	}

	if raw := values["created_at"]; raw != "" {
		createdAt, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session created_at: %w", parseErr)
		}
		session.CreatedAt = createdAt.UTC()
	}

	return session, nil
}

// Delete removes the session hash and its index entry. Exactly one caller
// observes a successful delete for a given session: concurrent deletes race
// on the DEL count and the losers get repository.ErrNotFound.
func (s *SessionStore) Delete(ctx context.Context, sessionID, userID string) error {
	key := s.key(sessionID)
	if key == "" {
		return fmt.Errorf("session id is required")
	}

	var deleted *red.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		deleted = pipe.Del(ctx, key)
		if strings.TrimSpace(userID) != "" {
			pipe.SRem(ctx, s.indexKey(userID), strings.TrimSpace(sessionID))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}

	if deleted.Val() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByUser returns all live sessions for a user via the index set. Index
// entries whose session hash already expired are pruned as they are found.
func (s *SessionStore) ListByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	indexKey := s.indexKey(userID)
	if indexKey == "" {
		return nil, fmt.Errorf("user id is required")
	}

	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list user sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(ids))
	stale := make([]any, 0)

	for _, id := range ids {
		session, getErr := s.Get(ctx, id)
		if getErr != nil {
			if getErr == repository.ErrNotFound {
				stale = append(stale, id)
				continue
			}
			return nil, getErr
		}
		sessions = append(sessions, *session)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("redis prune stale session index: %w", err)
		}
	}

	return sessions, nil
}

func (s *SessionStore) key(sessionID string) string {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}

func (s *SessionStore) indexKey(userID string) string {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.indexPrefix, trimmed)
}

var _ port.SessionStore = (*SessionStore)(nil)
