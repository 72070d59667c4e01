package email

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridHost = "https://api.sendgrid.com"

// sendWithSendgrid sends an email using the Sendgrid API
func (s *Service) sendWithSendgrid(data EmailData, htmlContent, textContent string) error {
	from := mail.NewEmail(data.FromName, data.From)
	to := mail.NewEmail("", data.To)
	message := mail.NewSingleEmail(from, data.Subject, to, textContent, htmlContent)

	response, err := s.sendgridClient.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email via Sendgrid: %w", err)
	}

	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected Sendgrid status code: %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}

// SyncContact upserts a marketing contact so mailing lists track the
// profile's current email, name and avatar.
func (s *Service) SyncContact(contact Contact) error {
	type sendgridContact struct {
		Email        string            `json:"email"`
		FirstName    string            `json:"first_name,omitempty"`
		CustomFields map[string]string `json:"custom_fields,omitempty"`
	}

	payload := struct {
		ListIDs  []string          `json:"list_ids,omitempty"`
		Contacts []sendgridContact `json:"contacts"`
	}{
		ListIDs: contact.Lists,
		Contacts: []sendgridContact{{
			Email:     contact.Email,
			FirstName: contact.Name,
			CustomFields: map[string]string{
				"user_id":    contact.UserID,
				"avatar_url": contact.AvatarURL,
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding contact payload: %w", err)
	}

	request := sendgrid.GetRequest(s.config.Sendgrid.APIKey, "/v3/marketing/contacts", sendgridHost)
	request.Method = http.MethodPut
	request.Body = body

	response, err := sendgrid.API(request)
	if err != nil {
		return fmt.Errorf("failed to sync contact via Sendgrid: %w", err)
	}

	if response.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected Sendgrid status code: %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
