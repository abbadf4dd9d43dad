package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/transport/http/middleware"
	"github.com/Lmagalhaesz/classly/internal/usecase"
)

// TokenHandler exposes administrative token revocation.
type TokenHandler struct {
	tokens *usecase.TokenService
	auth   *usecase.AuthService
}

// NewTokenHandler constructs TokenHandler.
func NewTokenHandler(tokens *usecase.TokenService, auth *usecase.AuthService) *TokenHandler {
	return &TokenHandler{tokens: tokens, auth: auth}
}

// RegisterRoutes binds token revocation routes behind admin authentication.
func (h *TokenHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/tokens", middleware.RequireAuth(h.auth), middleware.RequireRole(domain.RoleAdmin))
	group.POST("/revoke-all/:userId", h.revokeAll)
}

func (h *TokenHandler) revokeAll(c *gin.Context) {
	userID := c.Param("userId")

	version, err := h.tokens.RevokeAllTokens(c.Request.Context(), userID, "admin_request")
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to revoke tokens")
		return
	}

	c.JSON(http.StatusOK, TokenRevocationResponse{
		UserID:       userID,
		TokenVersion: version,
	})
}
