package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxOrganizationNameLen bounds the trimmed organization name.
const MaxOrganizationNameLen = 100

type Organization struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedBy uuid.UUID `db:"created_by" json:"created_by"`

	// Sensitive fields, visible to approved members only. GetOrganization
	// redacts them for everyone else.
	Address      string `db:"address" json:"address,omitempty"`
	Phone        string `db:"phone" json:"phone,omitempty"`
	BillingEmail string `db:"billing_email" json:"billing_email,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PublicView strips fields that non-members must not see.
func (o *Organization) PublicView() *Organization {
	return &Organization{
		ID:        o.ID,
		Name:      o.Name,
		IsActive:  o.IsActive,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// NormalizeOrganizationName trims surrounding whitespace. Comparison stays
// case-sensitive: "Clinic X" and "clinic x" are distinct organizations.
func NormalizeOrganizationName(name string) string {
	return strings.TrimSpace(name)
}

// ValidOrganizationName reports whether a normalized name is acceptable.
func ValidOrganizationName(name string) bool {
	return name != "" && len(name) <= MaxOrganizationNameLen
}

type OrganizationPatch struct {
	Name         *string `json:"name"`
	IsActive     *bool   `json:"is_active"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	BillingEmail *string `json:"billing_email"`
}
