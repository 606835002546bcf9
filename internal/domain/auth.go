package domain

import "time"

// Token represents issued authentication token metadata.
type Token struct {
	SubjectID int64
	Role      UserRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
