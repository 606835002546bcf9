package domain

import "time"

// Subordination is a directed edge meaning SubordinateID reports to SuperiorID.
type Subordination struct {
	ID              int64
	SuperiorID      int64
	SubordinateID   int64
	SuperiorName    string
	SubordinateName string
	Observation     string
	CreatedAt       time.Time
}
