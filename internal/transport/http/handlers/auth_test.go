package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/infra/security"
	"github.com/Lmagalhaesz/classly/internal/repository"
	"github.com/Lmagalhaesz/classly/internal/transport/http/middleware"
	"github.com/Lmagalhaesz/classly/internal/usecase"
)

type memoryCredentialStore struct {
	mu      sync.Mutex
	users   map[string]domain.User
	byEmail map[string]string
}

func newMemoryCredentialStore() *memoryCredentialStore {
	return &memoryCredentialStore{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (s *memoryCredentialStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return repository.ErrConflict
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *memoryCredentialStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *memoryCredentialStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *memoryCredentialStore) IncrementTokenVersion(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	user.TokenVersion++
	s.users[id] = user
	return user.TokenVersion, nil
}

type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]domain.Session)}
}

func (s *memorySessionStore) Create(_ context.Context, session domain.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, sessionID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *memorySessionStore) ListByUser(_ context.Context, userID string) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sessions []domain.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	codec, err := security.NewTokenCodec("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour, "classly-auth")
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}

	users := newMemoryCredentialStore()
	sessions := newMemorySessionStore()

	authService, err := usecase.NewAuthService(users, sessions, codec, nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}
	registrationService := usecase.NewRegistrationService(users, nil)
	sessionService := usecase.NewSessionService(sessions, nil, nil)

	r := gin.New()
	r.Use(middleware.EnrichContext())

	authGroup := r.Group("/api/v1/auth")

	authHandler := NewAuthHandler(authService, 168*time.Hour, WithRegistrationService(registrationService))
	authHandler.RegisterRoutes(authGroup, RouteMiddlewares{})

	sessionHandler := NewSessionHandler(sessionService, authService)
	sessionHandler.RegisterRoutes(authGroup)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TestAgent/1.0")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	if mutate != nil {
		mutate(req)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, r *gin.Engine) (accessToken string, refreshCookie *http.Cookie) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", RegisterRequest{
		Email:    "ana@example.com",
		Password: "tr4mpoline-Quartz!88",
		Name:     "Ana",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email:    "ana@example.com",
		Password: "tr4mpoline-Quartz!88",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token in login response")
	}

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == RefreshCookieName {
			refreshCookie = cookie
		}
	}
	if refreshCookie == nil {
		t.Fatal("expected refresh cookie on login")
	}
	if !refreshCookie.HttpOnly {
		t.Fatal("expected refresh cookie to be http-only")
	}
	if refreshCookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", refreshCookie.SameSite)
	}

	return resp.AccessToken, refreshCookie
}

func TestLoginSetsRefreshCookieAndReturnsAccessToken(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r)
}

func TestLoginWrongCredentialsUniformResponse(t *testing.T) {
	r := newTestRouter(t)
	registerAndLogin(t, r)

	unknown := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever-pass1!",
	}, nil)
	wrong := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong-password1!",
	}, nil)

	if unknown.Code != http.StatusUnauthorized || wrong.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", unknown.Code, wrong.Code)
	}

	var unknownBody, wrongBody ErrorResponse
	if err := json.Unmarshal(unknown.Body.Bytes(), &unknownBody); err != nil {
		t.Fatalf("decode unknown response: %v", err)
	}
	if err := json.Unmarshal(wrong.Body.Bytes(), &wrongBody); err != nil {
		t.Fatalf("decode wrong response: %v", err)
	}
	if unknownBody.Error != wrongBody.Error {
		t.Fatalf("expected identical error messages, got %q and %q", unknownBody.Error, wrongBody.Error)
	}
}

func TestRefreshRotatesCookieAndRejectsReplay(t *testing.T) {
	r := newTestRouter(t)
	_, cookie := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp RefreshResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token in refresh response")
	}

	var rotated *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == RefreshCookieName {
			rotated = c
		}
	}
	if rotated == nil || rotated.Value == cookie.Value {
		t.Fatal("expected a rotated refresh cookie")
	}

	// The consumed token must not be redeemable again.
	replay := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on replay, got %d", replay.Code)
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", w.Code)
	}
}

func TestRefreshDeviceMismatchSameShapeAsInvalid(t *testing.T) {
	r := newTestRouter(t)
	_, cookie := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(cookie)
		req.Header.Set("X-Forwarded-For", "198.51.100.99")
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on device mismatch, got %d", w.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "invalid refresh token" {
		t.Fatalf("expected generic refresh error, got %q", body.Error)
	}
}

func TestLogoutClearsCookieAndConsumesSession(t *testing.T) {
	r := newTestRouter(t)
	_, cookie := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == RefreshCookieName {
			cleared = c
		}
	}
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatal("expected refresh cookie cleared on logout")
	}

	refresh := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if refresh.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", refresh.Code)
	}

	// Replaying logout on the terminated session is unauthorized, not a no-op.
	again := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if again.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on repeated logout, got %d", again.Code)
	}
}

func TestLogoutWithoutCookie(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", w.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "refresh token not provided" {
		t.Fatalf("unexpected error message %q", body.Error)
	}
}

func TestLogoutDeviceMismatchRejected(t *testing.T) {
	r := newTestRouter(t)
	_, cookie := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(cookie)
		req.Header.Set("X-Forwarded-For", "198.51.100.99")
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on device mismatch, got %d", w.Code)
	}

	// The session survives; the original device can still log out.
	again := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(cookie)
	})
	if again.Code != http.StatusOK {
		t.Fatalf("expected original device logout to succeed, got %d", again.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	access, _ := registerAndLogin(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, body = %s", w.Code, w.Body.String())
	}

	var user UserSummary
	if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
}

func TestSessionListAndRevoke(t *testing.T) {
	r := newTestRouter(t)
	access, _ := registerAndLogin(t, r)

	// A second login opens a second session.
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", LoginRequest{
		Email:    "ana@example.com",
		Password: "tr4mpoline-Quartz!88",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second login status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/sessions", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("list sessions status = %d, body = %s", w.Code, w.Body.String())
	}

	var list SessionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode session list: %v", err)
	}
	if len(list.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list.Sessions))
	}

	// A session id that does not belong to the caller is unauthorized.
	w = doJSON(t, r, http.MethodDelete, "/api/v1/auth/sessions/no-such-session", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown session, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/auth/sessions/"+list.Sessions[0].ID, nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("revoke session status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/sessions/revoke-all", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+access)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("revoke all status = %d", w.Code)
	}

	var revoked RevokeAllResponse
	if err := json.Unmarshal(w.Body.Bytes(), &revoked); err != nil {
		t.Fatalf("decode revoke all response: %v", err)
	}
	if revoked.Revoked != 1 {
		t.Fatalf("expected 1 remaining session revoked, got %d", revoked.Revoked)
	}
}
