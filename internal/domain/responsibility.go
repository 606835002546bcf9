package domain

import "time"

// Responsibility records that a user answers for a department.
type Responsibility struct {
	ID             int64
	UserID         int64
	DepartmentID   int64
	Username       string
	DepartmentName string
	Observation    string
	CreatedAt      time.Time
}
