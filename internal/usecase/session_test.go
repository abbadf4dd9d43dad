package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
)

func seedSession(t *testing.T, store *stubSessionStore, id, userID string) {
	t.Helper()

	session := domain.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: "Mozilla/5.0",
		IPAddress: "203.0.113.7",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Create(context.Background(), session, time.Hour); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestListSessions(t *testing.T) {
	store := newStubSessionStore()
	seedSession(t, store, "sess-1", "user-1")
	seedSession(t, store, "sess-2", "user-1")
	seedSession(t, store, "other", "user-2")

	service := NewSessionService(store, nil, nil)

	sessions, err := service.ListSessions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListSessions returned error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestRevokeSessionOwned(t *testing.T) {
	store := newStubSessionStore()
	seedSession(t, store, "sess-1", "user-1")

	events := &stubEventPublisher{}
	service := NewSessionService(store, events, nil)

	if err := service.RevokeSession(context.Background(), "user-1", "sess-1"); err != nil {
		t.Fatalf("RevokeSession returned error: %v", err)
	}
	if store.count() != 0 {
		t.Fatalf("expected session deleted, have %d", store.count())
	}
	if len(events.revoked) != 1 {
		t.Fatalf("expected one revocation event, got %d", len(events.revoked))
	}
	if events.revoked[0].Reason != "user_revoked" {
		t.Fatalf("unexpected reason %q", events.revoked[0].Reason)
	}
}

func TestRevokeSessionForeignAndMissingIndistinguishable(t *testing.T) {
	store := newStubSessionStore()
	seedSession(t, store, "sess-1", "user-1")

	service := NewSessionService(store, nil, nil)

	foreignErr := service.RevokeSession(context.Background(), "user-2", "sess-1")
	if !errors.Is(foreignErr, ErrSessionUnauthorized) {
		t.Fatalf("expected ErrSessionUnauthorized for foreign session, got %v", foreignErr)
	}

	missingErr := service.RevokeSession(context.Background(), "user-2", "ghost")
	if !errors.Is(missingErr, ErrSessionUnauthorized) {
		t.Fatalf("expected ErrSessionUnauthorized for missing session, got %v", missingErr)
	}

	if foreignErr.Error() != missingErr.Error() {
		t.Fatal("expected identical errors for foreign and missing sessions")
	}

	if store.count() != 1 {
		t.Fatal("expected foreign session untouched")
	}
}

func TestRevokeAllSessions(t *testing.T) {
	store := newStubSessionStore()
	seedSession(t, store, "sess-1", "user-1")
	seedSession(t, store, "sess-2", "user-1")
	seedSession(t, store, "sess-3", "user-1")
	seedSession(t, store, "other", "user-2")

	events := &stubEventPublisher{}
	service := NewSessionService(store, events, nil)

	count, err := service.RevokeAllSessions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("RevokeAllSessions returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 revoked, got %d", count)
	}
	if store.count() != 1 {
		t.Fatalf("expected only the other user's session to remain, have %d", store.count())
	}
	if len(events.revoked) != 3 {
		t.Fatalf("expected 3 revocation events, got %d", len(events.revoked))
	}
}

func TestRevokeAllSessionsEmpty(t *testing.T) {
	service := NewSessionService(newStubSessionStore(), nil, nil)

	count, err := service.RevokeAllSessions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("RevokeAllSessions returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 revoked, got %d", count)
	}
}
