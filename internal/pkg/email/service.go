// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
)

// EmailService renders and sends transactional email
type EmailService struct {
	sender    Sender
	templates map[EmailType]*template.Template
	siteName  string
	siteURL   string
	timeout   time.Duration
	now       func() time.Time
}

// NewEmailService picks the sender named by cfg.Email.Provider.
func NewEmailService(cfg *config.Config, logger logrus.FieldLogger) (*EmailService, error) {
	var sender Sender
	switch cfg.Email.Provider {
	case "smtp":
		sender = NewSMTPSender(cfg.Email)
	case "log", "":
		sender = NewLogSender(logger)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Email.Provider)
	}
	return NewEmailServiceWithSender(sender, cfg.App.Name, cfg.App.BaseURL, cfg.Email.Timeout), nil
}

// NewEmailServiceWithSender builds a service around an explicit sender.
func NewEmailServiceWithSender(sender Sender, siteName, siteURL string, timeout time.Duration) *EmailService {
	return &EmailService{
		sender:    sender,
		templates: mustParseTemplates(),
		siteName:  siteName,
		siteURL:   siteURL,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (s *EmailService) base() TemplateData {
	return TemplateData{SiteName: s.siteName, SiteURL: s.siteURL, Year: s.now().Year()}
}

// SendWelcomeEmail greets a new newsletter subscriber
func (s *EmailService) SendWelcomeEmail(ctx context.Context, to string) error {
	html, err := s.render(EmailTypeWelcome, s.base())
	if err != nil {
		return err
	}
	return s.send(ctx, &Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Welcome to the %s community!", s.siteName),
		HTMLContent: html,
		Type:        EmailTypeWelcome,
	})
}

// SendOrderConfirmationEmail sends order confirmation email
func (s *EmailService) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	data.TemplateData = s.base()
	html, err := s.render(EmailTypeOrderConfirmation, data)
	if err != nil {
		return err
	}
	return s.send(ctx, &Email{
		To:          []string{data.CustomerEmail},
		Subject:     fmt.Sprintf("Order Confirmation - %s", data.OrderNumber),
		HTMLContent: html,
		Type:        EmailTypeOrderConfirmation,
	})
}

// SendOrderStatusUpdateEmail sends order status update notification
func (s *EmailService) SendOrderStatusUpdateEmail(ctx context.Context, data OrderStatusData) error {
	data.TemplateData = s.base()
	html, err := s.render(EmailTypeOrderStatusUpdate, data)
	if err != nil {
		return err
	}
	return s.send(ctx, &Email{
		To:          []string{data.CustomerEmail},
		Subject:     fmt.Sprintf("Order Update - %s", data.OrderNumber),
		HTMLContent: html,
		Type:        EmailTypeOrderStatusUpdate,
	})
}

func (s *EmailService) send(ctx context.Context, e *Email) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.sender.Send(ctx, e); err != nil {
		return fmt.Errorf("failed to send %s email: %w", e.Type, err)
	}
	return nil
}

// render renders an email template with data
func (s *EmailService) render(t EmailType, data interface{}) (string, error) {
	tmpl, ok := s.templates[t]
	if !ok {
		return "", fmt.Errorf("template %s not found", t)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", t, err)
	}
	return buf.String(), nil
}
