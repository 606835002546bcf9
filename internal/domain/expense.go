package domain

import "time"

// Element is a spending element used to classify expenses.
type Element struct {
	ID          int64
	Code        string
	Description string
}

// ExpenseType is a kind of expense, optionally scoped to an element.
type ExpenseType struct {
	ID          int64
	ElementID   *int64
	Name        string
	Description string
}

// Expense ("despesa") records money spent by a department.
type Expense struct {
	ID            int64
	DepartmentID  int64
	UserID        int64
	ElementID     int64
	ExpenseTypeID int64
	AmountCents   int64
	Justification string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
