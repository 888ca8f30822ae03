package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/resend/resend-go/v3"

	"prodfind/internal/config"
	"prodfind/internal/pkg/i18n"
)

//go:embed templates/*.html
var templates embed.FS

type Service interface {
	SendProductRemovedEmail(ctx context.Context, toEmail, name, productName, reason string) error
	SendProductRestoredEmail(ctx context.Context, toEmail, name, productName string) error
	SendAppealRejectedEmail(ctx context.Context, toEmail, name, productName, reason string) error
}

// Sender is the part of the resend client used to deliver mail.
type Sender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type service struct {
	sender Sender
	config *config.Config
	layout *template.Template
}

func NewService(cfg *config.Config) Service {
	var sender Sender
	if cfg.ResendAPIKey != "" {
		sender = resend.NewClient(cfg.ResendAPIKey).Emails
	}
	return NewServiceWithSender(sender, cfg)
}

// NewServiceWithSender builds the service on an explicit sender. A nil
// sender turns every send into a logged no-op.
func NewServiceWithSender(sender Sender, cfg *config.Config) Service {
	return &service{
		sender: sender,
		config: cfg,
		layout: template.Must(template.ParseFS(templates, "templates/layout.html")),
	}
}

type message struct {
	Subject  string
	Body     string
	Link     string
	LinkText string
}

func (s *service) sendEmail(ctx context.Context, toEmail string, msg message) error {
	if s.sender == nil {
		slog.DebugContext(ctx, "email delivery disabled", "to", toEmail, "subject", msg.Subject)
		return nil
	}

	var body bytes.Buffer
	if err := s.layout.Execute(&body, msg); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Prodfind <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: msg.Subject,
	}

	if _, err := s.sender.Send(params); err != nil {
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}
	return nil
}

func (s *service) notificationsLink() string {
	return fmt.Sprintf("https://%s/notifications", s.config.Domain)
}

func (s *service) SendProductRemovedEmail(ctx context.Context, toEmail, name, productName, reason string) error {
	return s.sendEmail(ctx, toEmail, message{
		Subject:  i18n.Format(i18n.DefaultLocale, "EMAIL_REMOVED_SUBJECT", "product", productName),
		Body:     i18n.Format(i18n.DefaultLocale, "EMAIL_REMOVED_BODY", "name", name, "product", productName, "reason", reason),
		Link:     s.notificationsLink(),
		LinkText: "Open notifications",
	})
}

func (s *service) SendProductRestoredEmail(ctx context.Context, toEmail, name, productName string) error {
	return s.sendEmail(ctx, toEmail, message{
		Subject: i18n.Format(i18n.DefaultLocale, "EMAIL_RESTORED_SUBJECT", "product", productName),
		Body:    i18n.Format(i18n.DefaultLocale, "EMAIL_RESTORED_BODY", "name", name, "product", productName),
	})
}

func (s *service) SendAppealRejectedEmail(ctx context.Context, toEmail, name, productName, reason string) error {
	return s.sendEmail(ctx, toEmail, message{
		Subject:  i18n.Format(i18n.DefaultLocale, "EMAIL_REJECTED_SUBJECT", "product", productName),
		Body:     i18n.Format(i18n.DefaultLocale, "EMAIL_REJECTED_BODY", "name", name, "product", productName, "reason", reason),
		Link:     s.notificationsLink(),
		LinkText: "Open notifications",
	})
}
