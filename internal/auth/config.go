// Package auth provides accounts, JWT access/refresh tokens, cookie
// sessions, API keys, and passkey credentials for the market tracker.
package auth

import "github.com/rumfor/market-tracker/internal/config"

// Config holds authentication configuration.
type Config struct {
	JWTSecret  string
	AdminEmail string
	DevMode    bool
	BaseURL    string // e.g. http://localhost:8080
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string
}

// ConfigFrom extracts auth settings from the server configuration.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		JWTSecret:  cfg.JWTSecret,
		AdminEmail: cfg.AdminEmail,
		DevMode:    cfg.DevMode,
		BaseURL:    cfg.BaseURL,
		SMTPHost:   cfg.SMTPHost,
		SMTPPort:   cfg.SMTPPort,
		SMTPUser:   cfg.SMTPUser,
		SMTPPass:   cfg.SMTPPass,
		SMTPFrom:   cfg.SMTPFrom,
	}
}
