// internal/email/mailer/welcome.go
package mailer

import (
	"fmt"

	"github.com/meridianhq/meridian/internal/email"
)

// WelcomeTemplateData contains data for the welcome email template
type WelcomeTemplateData struct {
	FirstName string
	AppName   string
}

// SendWelcomeEmail greets a freshly created profile.
func SendWelcomeEmail(s email.Sender, to string, data WelcomeTemplateData) error {
	emailData := email.EmailData{
		To:           to,
		Subject:      fmt.Sprintf("Welcome to %s!", data.AppName),
		TemplateName: "welcome",
		TemplateData: data,
	}

	return s.SendEmail(emailData)
}
