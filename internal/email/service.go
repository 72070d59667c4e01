// internal/email/service.go
package email

import (
	"bytes"
	"fmt"
	"html/template"

	meridian "github.com/meridianhq/meridian"
	"github.com/meridianhq/meridian/internal/config"
	"github.com/sendgrid/sendgrid-go"
)

var templateFS = meridian.EmailFS

const DefaultTemplatePath = "templates/emails"

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}
}

// Contact is a mailing-list contact kept in sync with a profile.
type Contact struct {
	Email     string
	UserID    string
	Name      string
	AvatarURL string
	Lists     []string
}

// Sender is the email sink consumed by the service layer. Failures are
// best-effort for callers; they log and move on.
type Sender interface {
	SendEmail(data EmailData) error
	SyncContact(contact Contact) error
}

// Service handles email operations through Sendgrid.
type Service struct {
	config         *config.Config
	sendgridClient *sendgrid.Client
	Templates      map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *template.Template
}

// NewService creates a new email service instance
func NewService(config *config.Config) (*Service, error) {
	s := &Service{
		config:         config,
		sendgridClient: sendgrid.NewSendClient(config.Sendgrid.APIKey),
		Templates:      make(map[string]*Template),
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates loads all email templates from the embedded filesystem
func (s *Service) loadTemplates() error {
	templateGroups, err := templateFS.ReadDir(DefaultTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read email templates directory: %w", err)
	}

	if len(templateGroups) == 0 {
		return fmt.Errorf("no email templates found")
	}

	for _, group := range templateGroups {
		if !group.IsDir() {
			continue
		}

		groupPath := DefaultTemplatePath + "/" + group.Name()
		groupEntries, err := templateFS.ReadDir(groupPath)
		if err != nil {
			return fmt.Errorf("failed to read email template group %s: %w", group.Name(), err)
		}

		if len(groupEntries) != 2 {
			return fmt.Errorf("invalid email template group %s: must contain exactly two files (HTML and plaintext)", group.Name())
		}

		tmpl := Template{
			HTML:      template.Must(template.ParseFS(templateFS, groupPath+"/html.tmpl")),
			Plaintext: template.Must(template.ParseFS(templateFS, groupPath+"/plaintext.tmpl")),
		}

		s.Templates[group.Name()] = &tmpl
	}

	return nil
}

// SendEmail renders the named template group and sends it through Sendgrid.
func (s *Service) SendEmail(data EmailData) error {
	htmlContent, textContent, err := s.renderTemplate(data.TemplateName, data.TemplateData)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	if data.From == "" {
		data.From = s.config.Sendgrid.From
	}
	if data.FromName == "" {
		data.FromName = s.config.AppName
	}

	return s.sendWithSendgrid(data, htmlContent, textContent)
}

// renderTemplate renders a template with the given data
func (s *Service) renderTemplate(name string, data interface{}) (string, string, error) {
	tmpl, exists := s.Templates[name]
	if !exists {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var htmlbuf bytes.Buffer
	if err := tmpl.HTML.Execute(&htmlbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	var textbuf bytes.Buffer
	if err := tmpl.Plaintext.Execute(&textbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	return htmlbuf.String(), textbuf.String(), nil
}
