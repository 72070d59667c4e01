// internal/email/mailer/member_added.go
package mailer

import (
	"fmt"

	"github.com/meridianhq/meridian/internal/email"
)

// MemberAddedTemplateData contains data for the member-added email template
type MemberAddedTemplateData struct {
	FirstName        string
	OrganizationName string
	Role             string
	AddedBy          string
}

// SendMemberAddedEmail notifies a profile that it was attached to an
// organization by one of its admins.
func SendMemberAddedEmail(s email.Sender, to string, data MemberAddedTemplateData) error {
	emailData := email.EmailData{
		To:           to,
		Subject:      fmt.Sprintf("You've been added to %s", data.OrganizationName),
		TemplateName: "member_added",
		TemplateData: data,
	}

	return s.SendEmail(emailData)
}
