// Package authz is the single decision point for every membership and
// tenant-scoped operation. Services pass an actor, an action and a resource
// and act only on an allow; they never re-implement the rules locally.
package authz

import (
	"github.com/google/uuid"

	"github.com/clinovia/clinic-api/internal/model"
)

// Action enumerates everything the policy table rules on.
type Action string

const (
	ActionReadOrganization          Action = "organization.read"
	ActionReadOrganizationSensitive Action = "organization.read_sensitive"
	ActionUpdateOrganization        Action = "organization.update"
	ActionCreateOrganization        Action = "organization.create"

	ActionReadOwnProfile    Action = "profile.read_own"
	ActionReadMemberProfile Action = "profile.read_member"
	ActionUpdateOwnProfile  Action = "profile.update_own"
	// ActionUpdateOwnMembership covers a user touching their own
	// organization, role or approval status. Denied unconditionally.
	ActionUpdateOwnMembership Action = "profile.update_own_membership"
	// ActionManageMember covers an admin changing another member's role,
	// active flag or approval status.
	ActionManageMember Action = "profile.manage_member"

	ActionCreateJoinRequest  Action = "join_request.create"
	ActionResolveJoinRequest Action = "join_request.resolve"

	ActionReadDomainResource  Action = "domain.read"
	ActionWriteDomainResource Action = "domain.write"
)

// Actor is the authenticated principal's membership snapshot.
type Actor struct {
	UserID         uuid.UUID
	Role           model.Role
	OrganizationID *uuid.UUID
	ApprovalStatus model.ApprovalStatus
}

// Resource identifies what the action targets. OrganizationID is the owning
// tenant (zero for tenant-less actions such as creating an organization);
// OwnerID is set for profile-shaped resources. WriteRoles optionally narrows
// which roles may perform a domain write; empty means any member role.
type Resource struct {
	OrganizationID uuid.UUID
	OwnerID        *uuid.UUID
	WriteRoles     []model.Role
}

// DenyReason is an internal-only category. It is logged server-side; the
// error surface collapses every denial to Forbidden.
type DenyReason string

const (
	ReasonNotMember  DenyReason = "not_member"
	ReasonNotAdmin   DenyReason = "not_admin"
	ReasonCrossOrg   DenyReason = "cross_org"
	ReasonUnapproved DenyReason = "unapproved"
)

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize evaluates the policy table. It is a pure function: no storage
// access, no logging.
func Authorize(actor Actor, action Action, resource Resource) Decision {
	switch action {
	case ActionReadOrganization, ActionCreateOrganization, ActionCreateJoinRequest:
		// Any authenticated actor. Join-request conflicts (pending
		// duplicate, existing membership) are state checks owned by the
		// ledger, not policy.
		return allow()

	case ActionReadOrganizationSensitive, ActionReadMemberProfile, ActionReadDomainResource:
		return requireMember(actor, resource.OrganizationID)

	case ActionUpdateOrganization, ActionManageMember, ActionResolveJoinRequest:
		return requireAdmin(actor, resource.OrganizationID)

	case ActionReadOwnProfile, ActionUpdateOwnProfile:
		if resource.OwnerID == nil || actor.UserID != *resource.OwnerID {
			return deny(ReasonNotMember)
		}
		return allow()

	case ActionUpdateOwnMembership:
		// A user can never change their own organization, role or
		// approval status, admin or not.
		return deny(ReasonNotAdmin)

	case ActionWriteDomainResource:
		if d := requireMember(actor, resource.OrganizationID); !d.Allowed {
			return d
		}
		if len(resource.WriteRoles) == 0 {
			return allow()
		}
		for _, r := range resource.WriteRoles {
			if actor.Role == r {
				return allow()
			}
		}
		return deny(ReasonNotAdmin)
	}

	// Unknown actions fail closed.
	return deny(ReasonNotMember)
}

func requireMember(actor Actor, orgID uuid.UUID) Decision {
	if actor.ApprovalStatus != model.ApprovalApproved {
		return deny(ReasonUnapproved)
	}
	if actor.OrganizationID == nil {
		return deny(ReasonNotMember)
	}
	if *actor.OrganizationID != orgID {
		return deny(ReasonCrossOrg)
	}
	return allow()
}

func requireAdmin(actor Actor, orgID uuid.UUID) Decision {
	if d := requireMember(actor, orgID); !d.Allowed {
		return d
	}
	if actor.Role != model.RoleAdmin {
		return deny(ReasonNotAdmin)
	}
	return allow()
}

// ActorFromProfile builds the policy-engine view of a profile.
func ActorFromProfile(p *model.Profile) Actor {
	return Actor{
		UserID:         p.UserID,
		Role:           p.Role,
		OrganizationID: p.OrganizationID,
		ApprovalStatus: p.ApprovalStatus,
	}
}
