// internal/model/invite.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Invite is a pending membership for an email address that has no profile
// yet. Scoped unique per (email, organization) so the same address can hold
// invitations into several organizations at once.
type Invite struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email          string    `gorm:"type:citext;not null;uniqueIndex:idx_invite_email_org"`
	Role           Role      `gorm:"type:text;not null"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invite_email_org"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Organization Organization `gorm:"foreignKey:OrganizationID"`
}
