package usecase

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
	"github.com/Lmagalhaesz/classly/internal/infra/logger"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

// ErrSessionUnauthorized covers both a session that does not exist and a
// session owned by someone else. A single error keeps the responses
// indistinguishable, so callers cannot probe for live session identifiers.
var ErrSessionUnauthorized = errors.New("session not found or not owned by user")

// SessionService manages a user's view of their active sessions.
type SessionService struct {
	sessions port.SessionStore
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(sessions port.SessionStore, events port.EventPublisher, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{sessions: sessions, events: events, logger: log}
}

// ListSessions returns every active session belonging to the user.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// RevokeSession deletes a single session after verifying ownership.
func (s *SessionService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return ErrSessionUnauthorized
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionUnauthorized
		}
		return fmt.Errorf("load session: %w", err)
	}

	if session.UserID != userID {
		return ErrSessionUnauthorized
	}

	if err := s.sessions.Delete(ctx, sessionID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionUnauthorized
		}
		return fmt.Errorf("delete session: %w", err)
	}

	s.publishRevoked(ctx, sessionID, userID, "user_revoked")

	s.logger.Info("session revoked",
		zap.String("user_id", userID),
		zap.String("session_id", logger.MaskString(sessionID)),
	)

	return nil
}

// RevokeAllSessions deletes every active session for the user and reports
// how many were removed. Sessions that expire mid-iteration are skipped.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	revoked := 0
	for _, session := range sessions {
		if err := s.sessions.Delete(ctx, session.ID, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return revoked, fmt.Errorf("delete session: %w", err)
		}
		revoked++
		s.publishRevoked(ctx, session.ID, userID, "user_revoked_all")
	}

	s.logger.Info("all sessions revoked",
		zap.String("user_id", userID),
		zap.Int("count", revoked),
	)

	return revoked, nil
}

func (s *SessionService) publishRevoked(ctx context.Context, sessionID, userID, reason string) {
	if s.events == nil {
		return
	}

	event := domain.SessionRevokedEvent{
		EventID:   uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Reason:    reason,
	}
	if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
		s.logger.Warn("publish session revoked event failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
