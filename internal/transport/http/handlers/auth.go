package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/transport/http/middleware"
	"github.com/Lmagalhaesz/classly/internal/usecase"
)

// RefreshCookieName is the cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
	cookieTTL    time.Duration
	secureCookie bool
}

// AuthHandlerOption configures optional AuthHandler dependencies.
type AuthHandlerOption func(*AuthHandler)

// WithRegistrationService injects the registration service dependency.
func WithRegistrationService(registration *usecase.RegistrationService) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.registration = registration
	}
}

// WithSecureCookies marks refresh cookies Secure, required outside development.
func WithSecureCookies(secure bool) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.secureCookie = secure
	}
}

// NewAuthHandler constructs AuthHandler. cookieTTL bounds the refresh cookie
// lifetime and should match the refresh token TTL.
func NewAuthHandler(auth *usecase.AuthService, cookieTTL time.Duration, opts ...AuthHandlerOption) *AuthHandler {
	handler := &AuthHandler{
		auth:      auth,
		cookieTTL: cookieTTL,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}

	return handler
}

// RouteMiddlewares carries per-endpoint middleware chains, typically rate
// limit rules scoped to credential-bearing endpoints.
type RouteMiddlewares struct {
	Login    []gin.HandlerFunc
	Register []gin.HandlerFunc
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of credential-bearing handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, mws RouteMiddlewares) {
	r.POST("/register", withChain(mws.Register, h.register)...)
	r.POST("/login", withChain(mws.Login, h.login)...)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)
	r.GET("/me", middleware.RequireAuth(h.auth), h.me)
}

func withChain(mws []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := append([]gin.HandlerFunc{}, mws...)
	return append(chain, handler)
}

func (h *AuthHandler) register(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	user, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
			{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "invalid role"},
		}, http.StatusInternalServerError, "failed to register user")
		return
	}

	c.JSON(http.StatusCreated, newUserSummary(user))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)

	user, pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, reqCtx.UserAgent, reqCtx.IP)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to log in"))
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken: pair.AccessToken,
		User:        newUserSummary(user),
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	reqCtx := middleware.GetRequestContext(c)

	pair, err := h.auth.Refresh(c.Request.Context(), refreshToken, reqCtx.UserAgent, reqCtx.IP)
	if err != nil {
		h.clearRefreshCookie(c)
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRefreshTokenMissing, Status: http.StatusUnauthorized, Message: "refresh token missing"},
			{Err: usecase.ErrInvalidRefreshToken, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrDeviceMismatch, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
		}, http.StatusInternalServerError, "failed to refresh tokens")
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)

	c.JSON(http.StatusOK, RefreshResponse{AccessToken: pair.AccessToken})
}

func (h *AuthHandler) logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	reqCtx := middleware.GetRequestContext(c)

	if err := h.auth.Logout(c.Request.Context(), refreshToken, reqCtx.UserAgent, reqCtx.IP); err != nil {
		h.clearRefreshCookie(c)
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrRefreshTokenMissing, Status: http.StatusUnauthorized, Message: "refresh token not provided"},
			{Err: usecase.ErrInvalidRefreshToken, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrDeviceMismatch, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
		}, http.StatusInternalServerError, "failed to log out")
		return
	}

	h.clearRefreshCookie(c)

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidAccessToken) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid access token"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load profile"))
		return
	}

	c.JSON(http.StatusOK, newUserSummary(user))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", h.secureCookie, true)
}
