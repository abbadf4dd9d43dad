package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/transport/http/middleware"
	"github.com/Lmagalhaesz/classly/internal/usecase"
)

// SessionHandler exposes endpoints for a user to inspect and revoke their
// own sessions.
type SessionHandler struct {
	sessions *usecase.SessionService
	auth     *usecase.AuthService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *usecase.SessionService, auth *usecase.AuthService) *SessionHandler {
	return &SessionHandler{sessions: sessions, auth: auth}
}

// RegisterRoutes binds session management routes behind authentication.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/sessions", middleware.RequireAuth(h.auth))
	group.GET("", h.list)
	group.DELETE("/:id", h.revoke)
	group.POST("/revoke-all", h.revokeAll)
}

func (h *SessionHandler) list(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sessions, err := h.sessions.ListSessions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions"))
		return
	}

	c.JSON(http.StatusOK, SessionListResponse{Sessions: newSessionSummaries(sessions)})
}

func (h *SessionHandler) revoke(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sessionID := c.Param("id")

	if err := h.sessions.RevokeSession(c.Request.Context(), userID, sessionID); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSessionUnauthorized, Status: http.StatusUnauthorized, Message: "invalid session"},
		}, http.StatusInternalServerError, "failed to revoke session")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session revoked"})
}

func (h *SessionHandler) revokeAll(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	count, err := h.sessions.RevokeAllSessions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to revoke sessions"))
		return
	}

	c.JSON(http.StatusOK, RevokeAllResponse{Revoked: count})
}

func newSessionSummaries(sessions []domain.Session) []SessionSummary {
	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, SessionSummary{
			ID:        session.ID,
			UserAgent: session.UserAgent,
			IPAddress: session.IPAddress,
			CreatedAt: session.CreatedAt,
		})
	}
	return summaries
}
