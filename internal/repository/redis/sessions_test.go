package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/Lmagalhaesz/classly/internal/core/domain"
	"github.com/Lmagalhaesz/classly/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func testSession(id, userID string) domain.Session {
	return domain.Session{
		ID:          id,
		UserID:      userID,
		UserAgent:   "Mozilla/5.0",
		IPAddress:   "203.0.113.7",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		RefreshHash: "deadbeef",
	}
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "session", "user_sessions")

	ctx := context.Background()
	session := testSession("sess-1", "user-1")
	ttl := 7 * 24 * time.Hour

	if err := store.Create(ctx, session, ttl); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", got.UserID)
	}
	if got.UserAgent != session.UserAgent {
		t.Fatalf("expected user agent %q, got %q", session.UserAgent, got.UserAgent)
	}
	if got.IPAddress != session.IPAddress {
		t.Fatalf("expected ip %q, got %q", session.IPAddress, got.IPAddress)
	}
	if !got.CreatedAt.Equal(session.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", session.CreatedAt, got.CreatedAt)
	}
	if got.RefreshHash != "deadbeef" {
		t.Fatalf("expected refresh hash to round trip, got %q", got.RefreshHash)
	}

	raw := server.HGet("session:sess-1", "created_at")
	if _, err := time.Parse(time.RFC3339, raw); err != nil {
		t.Fatalf("expected created_at stored as RFC3339, got %q", raw)
	}

	remaining := server.TTL("session:sess-1")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}

	isMember, err := server.SIsMember("user_sessions:user-1", "sess-1")
	if err != nil {
		t.Fatalf("SIsMember returned error: %v", err)
	}
	if !isMember {
		t.Fatal("expected session id in user index set")
	}
}

func TestSessionStore_GetMissing(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "session", "user_sessions")

	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStore_DeleteOnce(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "session", "user_sessions")

	ctx := context.Background()
	if err := store.Create(ctx, testSession("sess-1", "user-1"), time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := store.Delete(ctx, "sess-1", "user-1"); err != nil {
		t.Fatalf("first Delete returned error: %v", err)
	}

	if err := store.Delete(ctx, "sess-1", "user-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected session gone after delete, got %v", err)
	}
}

func TestSessionStore_DeleteRemovesIndexEntry(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "session", "user_sessions")

	ctx := context.Background()
	if err := store.Create(ctx, testSession("sess-1", "user-1"), time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := store.Delete(ctx, "sess-1", "user-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	isMember, err := server.SIsMember("user_sessions:user-1", "sess-1")
	if err != nil && !errors.Is(err, miniredis.ErrKeyNotFound) {
		t.Fatalf("SIsMember returned error: %v", err)
	}
	if isMember {
		t.Fatal("expected session id removed from user index")
	}
}

func TestSessionStore_ListByUser(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "session", "user_sessions")

	ctx := context.Background()
	for _, id := range []string{"sess-1", "sess-2", "sess-3"} {
		if err := store.Create(ctx, testSession(id, "user-1"), time.Hour); err != nil {
			t.Fatalf("Create %s returned error: %v", id, err)
		}
	}
	if err := store.Create(ctx, testSession("other", "user-2"), time.Hour); err != nil {
		t.Fatalf("Create other returned error: %v", err)
	}

	sessions, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for _, session := range sessions {
		if session.UserID != "user-1" {
			t.Fatalf("unexpected session owner %s", session.UserID)
		}
	}
}

func TestSessionStore_ListByUserPrunesExpired(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewSessionStore(client, "session", "user_sessions")

	ctx := context.Background()
	if err := store.Create(ctx, testSession("sess-1", "user-1"), time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := store.Create(ctx, testSession("sess-2", "user-1"), time.Hour); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Simulate TTL expiry of one hash while the index entry lingers.
	server.Del("session:sess-2")

	sessions, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "sess-1" {
		t.Fatalf("expected only sess-1 to survive, got %+v", sessions)
	}

	isMember, err := server.SIsMember("user_sessions:user-1", "sess-2")
	if err != nil && !errors.Is(err, miniredis.ErrKeyNotFound) {
		t.Fatalf("SIsMember returned error: %v", err)
	}
	if isMember {
		t.Fatal("expected stale index entry pruned")
	}
}

func TestSessionStore_ListByUserEmpty(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewSessionStore(client, "session", "user_sessions")

	sessions, err := store.ListByUser(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions))
	}
}
