// Package config loads the notifier settings from the environment (and an
// optional .env file).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            int           `env:"PORT" envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	Twilio   TwilioConfig
	Template TemplateConfig
	Database DatabaseConfig
	Queue    QueueConfig
	Mail     MailConfig
}

// TwilioConfig carries the static account credentials.
type TwilioConfig struct {
	AccountSID string `env:"TWILIO_SID"`
	AuthToken  string `env:"TWILIO_AUTH"`
}

func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != ""
}

// TemplateConfig is the message sent on every request. It is fixed for the
// lifetime of the process.
type TemplateConfig struct {
	To         string            `env:"WHATSAPP_TO" envDefault:"whatsapp:+918688153143"`
	From       string            `env:"WHATSAPP_FROM" envDefault:"whatsapp:+14155238886"`
	ContentSID string            `env:"WHATSAPP_CONTENT_SID" envDefault:"HXb5b62575e6e4ff6129ad7c8efe1f983e"`
	Variables  map[string]string `env:"WHATSAPP_CONTENT_VARIABLES" envDefault:"1:12/1,2:3pm"`
}

type DatabaseConfig struct {
	URL string `env:"DATABASE_URL"`
}

func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

type QueueConfig struct {
	URL string `env:"AMQP_URL"`
}

func (c QueueConfig) Enabled() bool { return c.URL != "" }

type MailConfig struct {
	Host       string `env:"MAIL_HOST"`
	Port       int    `env:"MAIL_PORT" envDefault:"587"`
	User       string `env:"MAIL_USER"`
	Password   string `env:"MAIL_PASS"`
	From       string `env:"MAIL_FROM" envDefault:"no-reply@whatsapp-notifier.local"`
	AlertEmail string `env:"ALERT_EMAIL"`
}

func (c MailConfig) Enabled() bool { return c.Host != "" && c.AlertEmail != "" }

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.Template.To == "" || c.Template.From == "" {
		return fmt.Errorf("whatsapp sender and recipient are required")
	}
	if c.Template.ContentSID == "" {
		return fmt.Errorf("whatsapp content sid is required")
	}

	if c.Mail.Enabled() && (c.Mail.Port < 1 || c.Mail.Port > 65535) {
		return fmt.Errorf("invalid mail port: %d", c.Mail.Port)
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
