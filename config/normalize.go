package config

import (
	"fmt"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	c.normalizeServer()
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.SMTP.Host = strings.TrimSpace(c.SMTP.Host)
	c.Email.FromEmail = strings.TrimSpace(c.Email.FromEmail)
	c.WhatsApp.WebhookURL = strings.TrimSpace(c.WhatsApp.WebhookURL)
	if err := c.normalizeNotify(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Server.PublicBaseURL), "/")
	if c.Server.PublicBaseURL == "" {
		c.Server.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.Server.PublicDir = strings.TrimSpace(c.Server.PublicDir)
}

func (c *Config) normalizeNotify() error {
	raw := strings.TrimSpace(c.Notify.Timeout)
	if raw == "" {
		raw = defaultNotifyTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("notify.timeout: %w", err)
	}
	c.Notify.Timeout = raw
	c.Notify.timeout = d
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
