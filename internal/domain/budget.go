package domain

import "time"

// Budget is the yearly allocation ("verba") assigned to a department.
type Budget struct {
	ID           int64
	DepartmentID int64
	UserID       int64
	Year         int
	AmountCents  int64
	Description  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
