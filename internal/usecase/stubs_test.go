package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

type stubCredentialStore struct {
	mu      sync.Mutex
	users   map[string]domain.User
	byEmail map[string]string

	createErr error
}

func newStubCredentialStore(users ...domain.User) *stubCredentialStore {
	store := &stubCredentialStore{
		users:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
	for _, user := range users {
		store.users[user.ID] = user
		store.byEmail[user.Email] = user.ID
	}
	return store
}

func (s *stubCredentialStore) Create(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return repository.ErrConflict
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *stubCredentialStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *stubCredentialStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *stubCredentialStore) IncrementTokenVersion(_ context.Context, id string) (int64, error) {
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

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session

	createErr error
	deleteErr error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Create(_ context.Context, session domain.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (s *stubSessionStore) Delete(_ context.Context, sessionID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.sessions[sessionID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *stubSessionStore) ListByUser(_ context.Context, userID string) ([]domain.Session, error) {
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

func (s *stubSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type stubEventPublisher struct {
	mu        sync.Mutex
	logins    []domain.UserLoggedInEvent
	revoked   []domain.SessionRevokedEvent
	versioned []domain.TokenVersionBumpedEvent
}

func (p *stubEventPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, event)
	return nil
}

func (p *stubEventPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, event)
	return nil
}

func (p *stubEventPublisher) PublishTokenVersionBumped(_ context.Context, event domain.TokenVersionBumpedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.versioned = append(p.versioned, event)
	return nil
}
