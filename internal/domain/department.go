package domain

import "time"

// Department represents an organizational unit that owns budgets and expenses.
type Department struct {
	ID                int64
	Name              string
	Description       string
	EntityType        string
	ResponsibleUserID int64
	Done              bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
