package services

import (
	"context"
	"encoding/base64"
	"fmt"

	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/campusbridge/webhooks/internal/domain"
)

const sendGridMailSendPath = "/v3/mail/send"

// SendGridConfig holds the email settings used for operator notifications
type SendGridConfig struct {
	APIKey        string
	BaseURL       string // empty means the public SendGrid API
	FromEmail     string
	FromName      string
	OperatorEmail string
	OperatorName  string
}

// SendGridNotifier emails the operator, and the store admin when given, through SendGrid
type SendGridNotifier struct {
	config SendGridConfig
}

// NewSendGridNotifier creates a SendGrid backed notifier
func NewSendGridNotifier(config SendGridConfig) *SendGridNotifier {
	return &SendGridNotifier{config: config}
}

// Notify sends one plaintext email
func (n *SendGridNotifier) Notify(ctx context.Context, note domain.Notification) error {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(n.config.FromName, n.config.FromEmail))
	m.Subject = note.Subject

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail(n.config.OperatorName, n.config.OperatorEmail))
	if note.AdminEmail != "" && note.AdminEmail != n.config.OperatorEmail {
		personalization.AddTos(mail.NewEmail(note.AdminName, note.AdminEmail))
	}
	m.AddPersonalizations(personalization)
	m.AddContent(mail.NewContent("text/plain", note.Text))

	for _, file := range note.Attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(file.Content))
		a.SetType(file.Type)
		a.SetFilename(file.Name)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}

	request := sendgrid.GetRequest(n.config.APIKey, sendGridMailSendPath, n.config.BaseURL)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(m)

	response, err := sendgrid.MakeRequestRetry(request)
	if err != nil {
		return fmt.Errorf("send %q: %w", note.Subject, err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send %q: sendgrid answered %d", note.Subject, response.StatusCode)
	}
	return nil
}

// LogNotifier stands in for email outside production
type LogNotifier struct {
	logger domain.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger domain.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the notification instead of sending it
func (n *LogNotifier) Notify(ctx context.Context, note domain.Notification) error {
	n.logger.Info("notification not sent outside production",
		"subject", note.Subject,
		"text", note.Text,
		"admin_email", note.AdminEmail,
		"attachments", len(note.Attachments),
	)
	return nil
}
