package port

import (
	"context"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
)

// EventPublisher emits audit events for security-relevant state changes.
type EventPublisher interface {
	PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
	PublishTokenVersionBumped(ctx context.Context, event domain.TokenVersionBumpedEvent) error
}
