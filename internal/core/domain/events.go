package domain

import "time"

// UserLoggedInEvent is published after a successful credential login.
type UserLoggedInEvent struct {
	EventID    string
	UserID     string
	SessionID  string
	UserAgent  string
	IPAddress  string
	LoggedInAt time.Time
}

// SessionRevokedEvent is published when a session is terminated by logout,
// explicit revocation, or bulk revocation.
type SessionRevokedEvent struct {
	EventID   string
	SessionID string
	UserID    string
	Reason    string
	RevokedAt time.Time
}

// TokenVersionBumpedEvent is published when a user's token version counter
// is incremented, invalidating all previously issued access tokens.
type TokenVersionBumpedEvent struct {
	EventID      string
	UserID       string
	TokenVersion int64
	Reason       string
	BumpedAt     time.Time
}
