package dto

import (
	"time"

	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/hierarchy"
)

// DepartmentRequest payload for POST /api/departments.
type DepartmentRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	EntityType        string `json:"entity_type"`
	ResponsibleUserID int64  `json:"responsible_user_id"`
	Done              bool   `json:"done"`
}

// DepartmentPatchRequest payload for PATCH /api/departments/:id. Absent
// fields are left unchanged.
type DepartmentPatchRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	EntityType        *string `json:"entity_type"`
	ResponsibleUserID *int64  `json:"responsible_user_id"`
	Done              *bool   `json:"done"`
}

// DepartmentResponse is the public view of a department.
type DepartmentResponse struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	EntityType        string    `json:"entity_type"`
	ResponsibleUserID int64     `json:"responsible_user_id,omitempty"`
	Done              bool      `json:"done"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewDepartmentResponse maps a domain department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:                d.ID,
		Name:              d.Name,
		Description:       d.Description,
		EntityType:        d.EntityType,
		ResponsibleUserID: d.ResponsibleUserID,
		Done:              d.Done,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// NewDepartmentList maps a slice of departments.
func NewDepartmentList(depts []domain.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, len(depts))
	for i := range depts {
		out[i] = NewDepartmentResponse(&depts[i])
	}
	return out
}

// SubordinationRequest payload for POST and PUT /api/subordinations.
type SubordinationRequest struct {
	SuperiorID    int64  `json:"superior_id"`
	SubordinateID int64  `json:"subordinate_id"`
	Observation   string `json:"observation"`
}

// DepartmentRef names one end of an edge.
type DepartmentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SubordinationResponse is the public view of an edge.
type SubordinationResponse struct {
	ID          int64         `json:"id"`
	Superior    DepartmentRef `json:"superior"`
	Subordinate DepartmentRef `json:"subordinate"`
	CreatedAt   time.Time     `json:"created_at"`
	Observation string        `json:"observation"`
}

// NewSubordinationResponse maps a domain edge.
func NewSubordinationResponse(s *domain.Subordination) SubordinationResponse {
	return SubordinationResponse{
		ID:          s.ID,
		Superior:    DepartmentRef{ID: s.SuperiorID, Name: s.SuperiorName},
		Subordinate: DepartmentRef{ID: s.SubordinateID, Name: s.SubordinateName},
		CreatedAt:   s.CreatedAt,
		Observation: s.Observation,
	}
}

// NewSubordinationList maps a slice of edges.
func NewSubordinationList(subs []domain.Subordination) []SubordinationResponse {
	out := make([]SubordinationResponse, len(subs))
	for i := range subs {
		out[i] = NewSubordinationResponse(&subs[i])
	}
	return out
}

// ViolationResponse is one audit finding.
type ViolationResponse struct {
	Kind        hierarchy.ViolationKind `json:"kind"`
	EdgeIDs     []int64                 `json:"edge_ids"`
	Departments []int64                 `json:"departments"`
}

// NewViolationList maps audit findings.
func NewViolationList(vs []hierarchy.Violation) []ViolationResponse {
	out := make([]ViolationResponse, len(vs))
	for i, v := range vs {
		out[i] = ViolationResponse{Kind: v.Kind, EdgeIDs: v.EdgeIDs, Departments: v.Departments}
	}
	return out
}

// ResponsibilityRequest payload for POST /api/responsibilities.
type ResponsibilityRequest struct {
	UserID       int64  `json:"user_id"`
	DepartmentID int64  `json:"department_id"`
	Observation  string `json:"observation"`
}

// ResponsibilityUpdateRequest payload for PUT /api/responsibilities/:id.
type ResponsibilityUpdateRequest struct {
	Observation *string `json:"observation"`
}

// UserRef names the user side of a responsibility.
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ResponsibilityResponse is the public view of a responsibility.
type ResponsibilityResponse struct {
	ID          int64         `json:"id"`
	User        UserRef       `json:"user"`
	Department  DepartmentRef `json:"department"`
	Observation string        `json:"observation"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewResponsibilityResponse maps a domain responsibility.
func NewResponsibilityResponse(r *domain.Responsibility) ResponsibilityResponse {
	return ResponsibilityResponse{
		ID:          r.ID,
		User:        UserRef{ID: r.UserID, Username: r.Username},
		Department:  DepartmentRef{ID: r.DepartmentID, Name: r.DepartmentName},
		Observation: r.Observation,
		CreatedAt:   r.CreatedAt,
	}
}
