package domain

import "time"

// Fingerprint defaults applied when the originating request carried no
// usable headers. Stored verbatim so device-binding checks stay symmetric.
const (
	UnknownUserAgent = "Unknown Browser"
	UnknownIP        = "Unknown IP"
)

// Session binds a refresh token's identifier to a user and the device
// fingerprint observed when the token was issued. One session per issued
// refresh token; rotation replaces the record rather than mutating it.
type Session struct {
	ID          string
	UserID      string
	UserAgent   string
	IPAddress   string
	CreatedAt   time.Time
	RefreshHash string
}

// MatchesDevice reports whether the presented fingerprint equals the one
// captured at session creation. Both components must match exactly.
func (s Session) MatchesDevice(userAgent, ipAddress string) bool {
	return s.UserAgent == userAgent && s.IPAddress == ipAddress
}

// TokenPair carries the freshly minted access and refresh tokens returned
// by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
