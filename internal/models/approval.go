package models

import (
	"time"

	"github.com/google/uuid"
)

// EntityType names the kind of record under review.
type EntityType string

const (
	EntityCandidate EntityType = "candidate"
	EntityCompany   EntityType = "company"
)

// Valid reports whether e is a reviewable entity type.
func (e EntityType) Valid() bool {
	return e == EntityCandidate || e == EntityCompany
}

// ApprovalEvent is one recorded status transition.
type ApprovalEvent struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	EntityType EntityType     `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id" db:"entity_id"`
	Action     string         `json:"action" db:"action"`
	FromStatus ApprovalStatus `json:"from_status" db:"from_status"`
	ToStatus   ApprovalStatus `json:"to_status" db:"to_status"`
	Reason     *string        `json:"reason,omitempty" db:"reason"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty" db:"actor_id"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// StatusChange is a guarded status update together with its audit row.
type StatusChange struct {
	EntityType EntityType
	EntityID   uuid.UUID
	Action     string
	From       ApprovalStatus
	To         ApprovalStatus
	Reason     *string
	ActorID    *uuid.UUID
	At         time.Time
	// Review records ActorID as the reviewer.
	Review bool
	// MarkSubmitted stamps submitted_at on candidates.
	MarkSubmitted bool
}

// StoredRejectionReason is the rejection_reason the record keeps after the
// change: the reason while rejected, nil in every other status. Notes on other
// actions live only in the approval history.
func (c *StatusChange) StoredRejectionReason() *string {
	if c.To == ApprovalRejected {
		return c.Reason
	}
	return nil
}

// ReviewRequest is the MIS decision body.
type ReviewRequest struct {
	Reason string `json:"reason" binding:"max=2000"`
}

// StatusCounts is the number of records per approval status.
type StatusCounts struct {
	Pending  int `json:"pending" db:"pending"`
	Approved int `json:"approved" db:"approved"`
	Rejected int `json:"rejected" db:"rejected"`
}

// ApprovalStats summarises the review queues.
type ApprovalStats struct {
	Candidates StatusCounts `json:"candidates"`
	Companies  StatusCounts `json:"companies"`
	// Unsubmitted counts candidate profiles still in the wizard.
	Unsubmitted int `json:"unsubmitted_candidates"`
}

// Page is a paginated list response.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampPage normalises 1-based pagination parameters.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
