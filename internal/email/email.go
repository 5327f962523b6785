// Package email provides email formatting and SMTP sending for the
// market tracker.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rumfor/market-tracker/internal/market"
	"github.com/rumfor/market-tracker/internal/tracking"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// TrackedMarket pairs a tracking with its market for digest formatting.
type TrackedMarket struct {
	Tracking *tracking.Tracking
	Market   *market.Market
}

// FormatDigest builds a plain-text summary of a user's tracked markets
// with their next session dates and preparation progress.
func FormatDigest(items []TrackedMarket, baseURL string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi,\n\nHere's where your %d tracked markets stand:\n\n", len(items))

	for i, tm := range items {
		m := tm.Market
		t := tm.Tracking

		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, m.Name, t.Status)

		var details []string
		if m.Location.City != "" {
			place := m.Location.City
			if m.Location.State != "" {
				place += ", " + m.Location.State
			}
			details = append(details, place)
		}
		if next := nextSessionDate(m); next != "" {
			details = append(details, "next: "+next)
		}
		if t.TodoCount > 0 {
			details = append(details, fmt.Sprintf("todos %d/%d", t.TodoDone, t.TodoCount))
		}
		if t.TotalExpenses > 0 {
			details = append(details, fmt.Sprintf("spent $%.2f", float64(t.TotalExpenses)/100))
		}
		if len(details) > 0 {
			fmt.Fprintf(&buf, "   %s\n", strings.Join(details, " | "))
		}

		if baseURL != "" {
			fmt.Fprintf(&buf, "   %s/api/markets/%d\n", baseURL, m.ID)
		}

		fmt.Fprintln(&buf)
	}

	fmt.Fprintf(&buf, "Good luck out there!\n")

	return buf.String()
}

// nextSessionDate returns the first session date on or after today.
func nextSessionDate(m *market.Market) string {
	today := time.Now().Format("2006-01-02")
	for _, s := range m.Schedule.Normalize() {
		if s.StartDate >= today {
			return s.StartDate
		}
	}
	return ""
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	tlsCfg := &tls.Config{ServerName: cfg.Host}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
