// internal/model/profile.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IdentityUserID           string     `gorm:"type:text;uniqueIndex;not null"`
	Email                    string     `gorm:"type:citext;uniqueIndex;not null"`
	Name                     *string    `gorm:"type:text"`
	AvatarURL                *string    `gorm:"type:text"`
	SubscribedToNewsletterAt *time.Time `gorm:"type:timestamptz"`
	LastSeenAt               *time.Time `gorm:"type:timestamptz"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// SubscribedToNewsletter reports the subscription flag carried by the
// presence of SubscribedToNewsletterAt (timestamp = subscribed-since).
func (p *Profile) SubscribedToNewsletter() bool {
	return p.SubscribedToNewsletterAt != nil
}

// DisplayName returns the profile name falling back to the email address.
func (p *Profile) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return p.Email
}
