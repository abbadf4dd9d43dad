package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

// ErrUserNotFound indicates the target user does not exist.
var ErrUserNotFound = errors.New("user not found")

// TokenService handles global token revocation through the per-user version
// counter.
type TokenService struct {
	users  port.CredentialStore
	events port.EventPublisher
	logger *zap.Logger
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(users port.CredentialStore, events port.EventPublisher, log *zap.Logger) *TokenService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenService{users: users, events: events, logger: log}
}

// RevokeAllTokens bumps the user's token version. Every access token issued
// before the bump fails the version check on its next use, without touching
// any session record.
func (s *TokenService) RevokeAllTokens(ctx context.Context, userID, reason string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	version, err := s.users.IncrementTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("increment token version: %w", err)
	}

	if s.events != nil {
		event := domain.TokenVersionBumpedEvent{
			EventID:      uuid.NewString(),
			UserID:       userID,
			TokenVersion: version,
			Reason:       reason,
			BumpedAt:     time.Now().UTC(),
		}
		if err := s.events.PublishTokenVersionBumped(ctx, event); err != nil {
			s.logger.Warn("publish token version event failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("token version bumped",
		zap.String("user_id", userID),
		zap.Int64("token_version", version),
		zap.String("reason", reason),
	)

	return version, nil
}
