package port

import (
	"context"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
)

// CredentialStore persists user credentials and the per-user token version
// counter used for global access-token revocation.
type CredentialStore interface {
	Create(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// IncrementTokenVersion atomically bumps the counter and returns the
	// new value. The counter only ever increases.
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
}
