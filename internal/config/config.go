// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all server-side settings. CLI-side settings live in the
// yaml config under ~/.config/rumfor (see internal/cli).
type Config struct {
	Port     int    `env:"RUMFOR_PORT" env-default:"8080"`
	DBPath   string `env:"RUMFOR_DB" env-default:""`
	DevMode  bool   `env:"RUMFOR_DEV_MODE" env-default:"false"`
	BaseURL  string `env:"RUMFOR_BASE_URL" env-default:"http://localhost:8080"`
	SeedDemo bool   `env:"RUMFOR_SEED_DEMO" env-default:"false"`

	JWTSecret  string `env:"RUMFOR_JWT_SECRET" env-default:""`
	AdminEmail string `env:"RUMFOR_ADMIN_EMAIL" env-default:""`

	SMTPHost string `env:"RUMFOR_SMTP_HOST" env-default:""`
	SMTPPort string `env:"RUMFOR_SMTP_PORT" env-default:"587"`
	SMTPUser string `env:"RUMFOR_SMTP_USER" env-default:""`
	SMTPPass string `env:"RUMFOR_SMTP_PASS" env-default:""`
	SMTPFrom string `env:"RUMFOR_SMTP_FROM" env-default:""`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}
