// internal/model/organization.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `gorm:"type:text;not null"`
	APIKey    *string   `gorm:"type:text;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Memberships []Membership `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
	Invites     []Invite     `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE"`
}

// Membership joins a profile to an organization with a role. Unique per
// (profile, organization) pair.
type Membership struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProfileID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_profile_org"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_profile_org"`
	Role           Role      `gorm:"type:text;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Profile      Profile      `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	Organization Organization `gorm:"foreignKey:OrganizationID"`
}
