package domain

import "time"

// Role enumerates the platform roles a user can hold.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether the role is one of the known platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is the credential-store record backing authentication decisions.
// TokenVersion is a monotonic counter; bumping it invalidates every access
// token issued with a lower value.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	TokenVersion int64
	CreatedAt    time.Time
}
