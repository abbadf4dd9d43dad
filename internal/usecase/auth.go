package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/core/port"
	"github.com/Lmagalhaesz/classly/internal/infra/logger"
	"github.com/Lmagalhaesz/classly/internal/infra/security"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	// The same error covers both cases so responses never reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshTokenMissing indicates no refresh token accompanied the request.
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	// ErrInvalidRefreshToken indicates the refresh token is malformed, expired,
	// already used, or references a session that no longer exists.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrDeviceMismatch indicates the request's device fingerprint does not
	// match the one captured when the session was created.
	ErrDeviceMismatch = errors.New("device fingerprint mismatch")
	// ErrInvalidAccessToken indicates the access token is malformed or its
	// signature failed validation.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrTokenRevoked indicates the token's version no longer matches the
	// user's current version.
	ErrTokenRevoked = errors.New("token revoked")
)

// AuthService coordinates login, token rotation, and verification flows.
type AuthService struct {
	users    port.CredentialStore
	sessions port.SessionStore
	codec    *security.TokenCodec
	events   port.EventPublisher
	logger   *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users port.CredentialStore,
	sessions port.SessionStore,
	codec *security.TokenCodec,
	events port.EventPublisher,
	log *zap.Logger,
) (*AuthService, error) {
	if codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		users:    users,
		sessions: sessions,
		codec:    codec,
		events:   events,
		logger:   log,
	}, nil
}

// Login validates credentials and opens a new session bound to the caller's
// device fingerprint.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*domain.User, *domain.TokenPair, error) {
	if email == "" {
		return nil, nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, nil, fmt.Errorf("password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.CreateSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &sanitized, pair, nil
}

// CreateSession mints an access/refresh pair and stores the session record.
// The session record keeps a digest of the refresh token, never the token
// itself.
func (s *AuthService) CreateSession(ctx context.Context, user *domain.User, userAgent, ipAddress string) (*domain.TokenPair, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("user is required")
	}

	if strings.TrimSpace(userAgent) == "" {
		userAgent = domain.UnknownUserAgent
	}
	if strings.TrimSpace(ipAddress) == "" {
		ipAddress = domain.UnknownIP
	}

	sessionID := uuid.NewString()

	accessToken, err := s.codec.SignAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := s.codec.SignRefresh(user.ID, sessionID)
	if err != nil {
		if errors.Is(err, security.ErrRefreshSecretMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:          sessionID,
		UserID:      user.ID,
		UserAgent:   userAgent,
		IPAddress:   ipAddress,
		CreatedAt:   now,
		RefreshHash: security.HashToken(refreshToken),
	}

	if err := s.sessions.Create(ctx, session, s.codec.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	if s.events != nil {
		event := domain.UserLoggedInEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			SessionID:  sessionID,
			UserAgent:  userAgent,
			IPAddress:  ipAddress,
			LoggedInAt: now,
		}
		if err := s.events.PublishUserLoggedIn(ctx, event); err != nil {
			s.logger.Warn("publish login event failed",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("session created",
		zap.String("user_id", user.ID),
		zap.String("session_id", logger.MaskString(sessionID)),
		zap.String("ip", logger.MaskIP(ipAddress)),
	)

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh rotates a refresh token. The old session is deleted before the new
// pair is issued, so a token replayed after rotation finds nothing to redeem.
// When two requests race on the same token, the session delete picks exactly
// one winner and the loser fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*domain.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrRefreshTokenMissing
	}

	claims, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrRefreshSecretMissing) {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session.RefreshHash != "" && session.RefreshHash != security.HashToken(refreshToken) {
		return nil, ErrInvalidRefreshToken
	}

	if !session.MatchesDevice(userAgent, ipAddress) {
		s.logger.Warn("refresh device mismatch",
			zap.String("user_id", session.UserID),
			zap.String("session_id", logger.MaskString(session.ID)),
			zap.String("ip", logger.MaskIP(ipAddress)),
		)
		return nil, ErrDeviceMismatch
	}

	if err := s.sessions.Delete(ctx, session.ID, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("consume session: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return s.CreateSession(ctx, user, userAgent, ipAddress)
}

// Logout terminates the session referenced by the refresh token. The same
// verification applies as on rotation: a missing, malformed or already
// consumed token fails, as does a foreign device fingerprint. A second
// logout against the same token finds no session and fails too.
func (s *AuthService) Logout(ctx context.Context, refreshToken, userAgent, ipAddress string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrRefreshTokenMissing
	}

	claims, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrRefreshSecretMissing) {
			return err
		}
		return ErrInvalidRefreshToken
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		return fmt.Errorf("load session: %w", err)
	}

	if session.RefreshHash != "" && session.RefreshHash != security.HashToken(refreshToken) {
		return ErrInvalidRefreshToken
	}

	if !session.MatchesDevice(userAgent, ipAddress) {
		s.logger.Warn("logout device mismatch",
			zap.String("user_id", session.UserID),
			zap.String("session_id", logger.MaskString(session.ID)),
			zap.String("ip", logger.MaskIP(ipAddress)),
		)
		return ErrDeviceMismatch
	}

	if err := s.sessions.Delete(ctx, session.ID, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("session closed",
		zap.String("user_id", session.UserID),
		zap.String("session_id", logger.MaskString(session.ID)),
	)

	return nil
}

// Profile returns the user's account record without the password hash.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

// ParseAccessToken verifies an access token in two layers: signature and
// expiry first, then the token version against the credential store. A
// version bump invalidates every token minted before it.
func (s *AuthService) ParseAccessToken(ctx context.Context, raw string) (*security.AccessClaims, error) {
	claims, err := s.codec.ParseAccess(raw)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAccessToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if claims.TokenVersion != user.TokenVersion {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}
