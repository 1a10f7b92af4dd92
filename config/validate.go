package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/granforum/forum/datastore"
	"github.com/granforum/forum/webutil"
)

const maxWebhookAttempts = 10

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSMTP(); err != nil {
		return err
	}
	if err := c.validateWhatsApp(); err != nil {
		return err
	}
	if c.Notify.timeout <= 0 {
		return errors.New("notify.timeout must be positive")
	}
	if c.Notify.timeout >= webutil.RequestTimeout {
		return fmt.Errorf("notify.timeout must be below the %s request timeout", webutil.RequestTimeout)
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !isHTTPURL(c.Server.PublicBaseURL) {
		return fmt.Errorf("server.public_base_url %q must be an absolute http(s) URL", c.Server.PublicBaseURL)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if _, err := datastore.ParseDialect(c.Database.Driver); err != nil {
		return fmt.Errorf("database.driver: %w", err)
	}
	if c.Database.URL == "" {
		return errors.New("database.url must be set")
	}
	return nil
}

func (c *Config) validateSMTP() error {
	if c.SMTP.Host == "" {
		return errors.New("smtp.host must be set (use \"log\" to only log outgoing mail)")
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port %d out of range", c.SMTP.Port)
	}
	if c.Email.FromEmail == "" {
		return errors.New("email.from_email must be set")
	}
	return nil
}

func (c *Config) validateWhatsApp() error {
	if c.WhatsApp.WebhookURL != "" && !isHTTPURL(c.WhatsApp.WebhookURL) {
		return fmt.Errorf("whatsapp.webhook_url %q must be an absolute http(s) URL", c.WhatsApp.WebhookURL)
	}
	if c.WhatsApp.WebhookAttempts < 1 || c.WhatsApp.WebhookAttempts > maxWebhookAttempts {
		return fmt.Errorf("whatsapp.webhook_attempts must be between 1 and %d", maxWebhookAttempts)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("logging.format %q must be one of auto, json, text", c.Logging.Format)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
