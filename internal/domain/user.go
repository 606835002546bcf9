package domain

import "time"

// UserRole enumerates application roles.
type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleMember UserRole = "MEMBER"
)

// User is an authenticated operator of the service.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
