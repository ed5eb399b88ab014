package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleNurse  Role = "nurse"
)

// ValidRole reports whether r is one of the assignable membership roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse:
		return true
	}
	return false
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Profile is a user's membership record. One row per user; organization_id is
// null until a join request is approved or the user founds an organization,
// and never changes afterwards.
type Profile struct {
	UserID         uuid.UUID      `db:"user_id" json:"user_id"`
	Email          string         `db:"email" json:"email"`
	FullName       string         `db:"full_name" json:"full_name"`
	Phone          string         `db:"phone" json:"phone,omitempty"`
	OrganizationID *uuid.UUID     `db:"organization_id" json:"organization_id,omitempty"`
	Role           Role           `db:"role" json:"role,omitempty"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	IsActive       bool           `db:"is_active" json:"is_active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// IsApprovedMemberOf reports whether the profile is an approved, active member
// of the given organization.
func (p *Profile) IsApprovedMemberOf(orgID uuid.UUID) bool {
	return p.ApprovalStatus == ApprovalApproved &&
		p.OrganizationID != nil && *p.OrganizationID == orgID
}

// ProfilePatch carries the personal fields a user may change on their own
// profile. Membership fields (organization, role, approval) are not
// representable here; the handler rejects requests that include them.
type ProfilePatch struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}
