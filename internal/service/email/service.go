package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"

	"kumpul/internal/config"
)

//go:embed templates/*.html
var templates embed.FS

type Service interface {
	SendEmailVerification(ctx context.Context, toEmail, fullName, verificationToken string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, fullName, resetToken string) error
	SendWelcomeEmail(ctx context.Context, toEmail, fullName string) error
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, from, to, subject, html string) error
}

type resendSender struct {
	client *resend.Client
}

func (r *resendSender) Send(ctx context.Context, from, to, subject, html string) error {
	_, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Html:    html,
		Subject: subject,
	})
	return err
}

type service struct {
	sender Sender
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	return NewServiceWithSender(&resendSender{client: resend.NewClient(cfg.ResendAPIKey)}, cfg)
}

func NewServiceWithSender(sender Sender, cfg *config.Config) Service {
	return &service{sender: sender, config: cfg}
}

type linkData struct {
	Title string
	Name  string
	Link  string
}

func (s *service) sendEmail(ctx context.Context, toEmail, subject, templateName string, data interface{}) error {
	tmpl, err := template.ParseFS(templates, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		return fmt.Errorf("failed to parse email templates: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	from := fmt.Sprintf("Kumpul <%s>", s.config.FromEmail)
	return s.sender.Send(ctx, from, toEmail, subject, body.String())
}

func (s *service) SendEmailVerification(ctx context.Context, toEmail, fullName, verificationToken string) error {
	data := linkData{
		Title: "Verify your email",
		Name:  fullName,
		Link:  fmt.Sprintf("https://%s/verify-email?token=%s", s.config.Domain, verificationToken),
	}
	return s.sendEmail(ctx, toEmail, "Verify your email - Kumpul", "verification.html", data)
}

func (s *service) SendPasswordResetEmail(ctx context.Context, toEmail, fullName, resetToken string) error {
	data := linkData{
		Title: "Reset your password",
		Name:  fullName,
		Link:  fmt.Sprintf("https://%s/reset-password?token=%s", s.config.Domain, resetToken),
	}
	return s.sendEmail(ctx, toEmail, "Password reset request - Kumpul", "reset_password.html", data)
}

func (s *service) SendWelcomeEmail(ctx context.Context, toEmail, fullName string) error {
	data := linkData{
		Title: "Welcome to Kumpul",
		Name:  fullName,
		Link:  fmt.Sprintf("https://%s/", s.config.Domain),
	}
	return s.sendEmail(ctx, toEmail, "Welcome to Kumpul!", "welcome.html", data)
}
