package model

import (
	"time"

	"github.com/google/uuid"
)

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is an append-mostly ledger row. Terminal rows (approved or
// rejected) are never mutated again; re-application creates a new row.
type JoinRequest struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	UserID         uuid.UUID         `db:"user_id" json:"user_id"`
	OrganizationID uuid.UUID         `db:"organization_id" json:"organization_id"`
	RequestedRole  Role              `db:"requested_role" json:"requested_role"`
	Status         JoinRequestStatus `db:"status" json:"status"`
	ReviewerID     *uuid.UUID        `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewedAt     *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// Terminal reports whether the request has been resolved.
func (j *JoinRequest) Terminal() bool {
	return j.Status != JoinRequestPending
}
