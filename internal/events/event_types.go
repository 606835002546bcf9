package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers. Values double as AMQP
// routing keys.
type EventType string

const (
	EventDepartmentCreated     EventType = "department.created"
	EventDepartmentUpdated     EventType = "department.updated"
	EventDepartmentDeleted     EventType = "department.deleted"
	EventSubordinationCreated  EventType = "subordination.created"
	EventSubordinationUpdated  EventType = "subordination.updated"
	EventSubordinationDeleted  EventType = "subordination.deleted"
	EventSubordinationRejected EventType = "subordination.rejected"
)

// AllTypes lists every event type, used by subscribers that forward everything.
var AllTypes = []EventType{
	EventDepartmentCreated,
	EventDepartmentUpdated,
	EventDepartmentDeleted,
	EventSubordinationCreated,
	EventSubordinationUpdated,
	EventSubordinationDeleted,
	EventSubordinationRejected,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	ActorID   *int64    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actorID *int64, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// DepartmentPayload payload.
type DepartmentPayload struct {
	DepartmentID int64  `json:"department_id"`
	Name         string `json:"name,omitempty"`
}

// SubordinationPayload payload.
type SubordinationPayload struct {
	SubordinationID int64  `json:"subordination_id"`
	SuperiorID      int64  `json:"superior_id"`
	SubordinateID   int64  `json:"subordinate_id"`
	Observation     string `json:"observation,omitempty"`
}

// SubordinationRejectedPayload describes a refused hierarchy change.
type SubordinationRejectedPayload struct {
	SuperiorID    int64  `json:"superior_id"`
	SubordinateID int64  `json:"subordinate_id"`
	Code          string `json:"code"`
	Reason        string `json:"reason"`
}
