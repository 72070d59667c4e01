// internal/email/mailer/member_invited.go
package mailer

import (
	"fmt"

	"github.com/meridianhq/meridian/internal/email"
)

// MemberInvitedTemplateData contains data for the invitation email template
type MemberInvitedTemplateData struct {
	OrganizationName string
	Role             string
	InvitedBy        string
}

// SendMemberInvitedEmail tells an address without a profile that an
// invitation is waiting for it.
func SendMemberInvitedEmail(s email.Sender, to string, data MemberInvitedTemplateData) error {
	emailData := email.EmailData{
		To:           to,
		Subject:      fmt.Sprintf("You've been invited to %s", data.OrganizationName),
		TemplateName: "member_invited",
		TemplateData: data,
	}

	return s.SendEmail(emailData)
}
