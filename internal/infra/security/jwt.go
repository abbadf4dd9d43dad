package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
)

var (
	ErrTokenInvalid         = errors.New("token is invalid")
	ErrTokenExpired         = errors.New("token has expired")
	ErrRefreshSecretMissing = errors.New("refresh signing secret is not configured")
)

// AccessClaims is the payload of short lived access tokens. TokenVersion is
// compared against the credential store on every verification so a bump
// there invalidates all previously issued access tokens.
type AccessClaims struct {
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	TokenVersion int64       `json:"token_version"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of refresh tokens. The session identifier is
// the only lookup key carried on the wire.
type RefreshClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenCodec signs and parses the access/refresh pair. The two token kinds
// use independent secrets so a leak of one never compromises the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) (*TokenCodec, error) {
	if accessSecret == "" {
		return nil, fmt.Errorf("access signing secret is not configured")
	}

	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}, nil
}

// AccessTTL reports the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// SignAccess mints an access token carrying the user's identity claims.
func (c *TokenCodec) SignAccess(user *domain.User) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// SignRefresh mints a refresh token bound to a session record.
func (c *TokenCodec) SignRefresh(userID, sessionID string) (string, error) {
	if len(c.refreshSecret) == 0 {
		return "", ErrRefreshSecretMissing
	}

	now := time.Now()

	claims := RefreshClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, nil
}

// ParseAccess verifies signature and expiry of an access token.
func (c *TokenCodec) ParseAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(raw, claims, c.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies signature and expiry of a refresh token.
func (c *TokenCodec) ParseRefresh(raw string) (*RefreshClaims, error) {
	if len(c.refreshSecret) == 0 {
		return nil, ErrRefreshSecretMissing
	}

	claims := &RefreshClaims{}
	if err := c.parse(raw, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *TokenCodec) parse(raw string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	if !token.Valid {
		return ErrTokenInvalid
	}

	return nil
}
