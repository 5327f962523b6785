package auth

import (
	"fmt"

	"github.com/rumfor/market-tracker/internal/email"
)

// Mailer sends verification and password-reset emails. In dev mode it
// prints the links to stdout instead of sending.
type Mailer struct {
	cfg Config
}

// NewMailer creates a mailer.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) smtp() email.SMTPConfig {
	return email.SMTPConfig{
		Host: m.cfg.SMTPHost,
		Port: m.cfg.SMTPPort,
		User: m.cfg.SMTPUser,
		Pass: m.cfg.SMTPPass,
		From: m.cfg.SMTPFrom,
	}
}

// SendVerification sends an email-verification link. Returns the link
// so dev mode callers can surface it.
func (m *Mailer) SendVerification(to, token string) (string, error) {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", m.cfg.BaseURL, token)

	if m.cfg.DevMode {
		fmt.Printf("[DEV] Verification link for %s: %s\n", to, link)
		return link, nil
	}

	body := fmt.Sprintf(
		"Welcome to Rumfor!\n\nVerify your email address by opening this link:\n\n%s\n\nThe link expires in 15 minutes.\n",
		link,
	)
	if err := email.Send(m.smtp(), []string{to}, "Verify your Rumfor account", body); err != nil {
		return "", err
	}
	return link, nil
}

// SendPasswordReset sends a password-reset link.
func (m *Mailer) SendPasswordReset(to, token string) (string, error) {
	link := fmt.Sprintf("%s/api/auth/password-reset/confirm?token=%s", m.cfg.BaseURL, token)

	if m.cfg.DevMode {
		fmt.Printf("[DEV] Password reset link for %s: %s\n", to, link)
		return link, nil
	}

	body := fmt.Sprintf(
		"A password reset was requested for your Rumfor account.\n\nReset your password by opening this link:\n\n%s\n\nIf you didn't request this, you can ignore this email. The link expires in 15 minutes.\n",
		link,
	)
	if err := email.Send(m.smtp(), []string{to}, "Reset your Rumfor password", body); err != nil {
		return "", err
	}
	return link, nil
}
