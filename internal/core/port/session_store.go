package port

import (
	"context"
	"time"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
)

// SessionStore holds ephemeral session records keyed by session id. Records
// expire after the supplied TTL; a deleted or expired id is never reused.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// Delete removes the session and its index entry. Returns
	// repository.ErrNotFound when the record was already gone, which is how
	// concurrent refreshes against the same token resolve to one winner.
	Delete(ctx context.Context, sessionID, userID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Session, error)
}
