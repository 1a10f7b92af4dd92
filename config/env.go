package config

import (
	"fmt"
	"strconv"
	"strings"
)

type lookupFunc func(key string) (string, bool)

// applyEnv overrides file and default values with the process environment.
// Empty variables are ignored.
func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, v)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, v)
		}
		*dst = b
		return nil
	}

	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	str("PUBLIC_BASE_URL", &c.Server.PublicBaseURL)
	str("PUBLIC_DIR", &c.Server.PublicDir)

	str("DATABASE_DRIVER", &c.Database.Driver)
	if v, ok := lookup("DATABASE_URL"); ok && strings.TrimSpace(v) != "" {
		c.Database.URL = strings.TrimSpace(v)
		// A Postgres URL without an explicit driver selects Postgres.
		if driver, _ := lookup("DATABASE_DRIVER"); strings.TrimSpace(driver) == "" && looksLikePostgres(c.Database.URL) {
			c.Database.Driver = "postgres"
		}
	}

	str("SMTP_HOST", &c.SMTP.Host)
	if err := num("SMTP_PORT", &c.SMTP.Port); err != nil {
		return err
	}
	if err := flag("SMTP_SECURE", &c.SMTP.Secure); err != nil {
		return err
	}
	str("SMTP_USER", &c.SMTP.User)
	str("SMTP_PASS", &c.SMTP.Pass)

	str("FROM_EMAIL", &c.Email.FromEmail)
	str("FROM_NAME", &c.Email.FromName)

	str("N8N_WHATSAPP_WEBHOOK", &c.WhatsApp.WebhookURL)
	str("WHATSAPP_WEBHOOK_SECRET", &c.WhatsApp.WebhookSecret)
	if err := num("WHATSAPP_WEBHOOK_ATTEMPTS", &c.WhatsApp.WebhookAttempts); err != nil {
		return err
	}

	str("NOTIFY_TIMEOUT", &c.Notify.Timeout)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	return nil
}

func looksLikePostgres(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}
