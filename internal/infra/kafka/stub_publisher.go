package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserLoggedIn logs auth.user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"session_id":   event.SessionID,
		"user_agent":   event.UserAgent,
		"ip_address":   event.IPAddress,
		"logged_in_at": event.LoggedInAt,
	}
	p.logEvent("auth.user.logged_in", event.UserID, event.LoggedInAt, payload)
	return nil
}

// PublishSessionRevoked logs auth.session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	payload := map[string]any{
		"session_id": event.SessionID,
		"user_id":    event.UserID,
		"reason":     event.Reason,
		"revoked_at": event.RevokedAt,
	}
	p.logEvent("auth.session.revoked", event.UserID, event.RevokedAt, payload)
	return nil
}

// PublishTokenVersionBumped logs auth.tokens.revoked_all events.
func (p *StubPublisher) PublishTokenVersionBumped(_ context.Context, event domain.TokenVersionBumpedEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"token_version": event.TokenVersion,
		"reason":        event.Reason,
		"bumped_at":     event.BumpedAt,
	}
	p.logEvent("auth.tokens.revoked_all", event.UserID, event.BumpedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
