package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
}

// LoginRequest carries credentials for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserSummary is the public view of an account.
type UserSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

// AuthResponse is returned by login and refresh. The refresh token rides in
// an HTTP-only cookie, never in the body.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	User        UserSummary `json:"user"`
}

// RefreshResponse is returned by token rotation.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// SessionSummary is the public view of an active session.
type SessionSummary struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionListResponse wraps a user's active sessions.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// RevokeAllResponse reports how many sessions were removed.
type RevokeAllResponse struct {
	Revoked int `json:"revoked"`
}

// TokenRevocationResponse reports the new token version after a global bump.
type TokenRevocationResponse struct {
	UserID       string `json:"user_id"`
	TokenVersion int64  `json:"token_version"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports dependency connectivity.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
