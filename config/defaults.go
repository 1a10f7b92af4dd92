package config

const (
	defaultPort            = 3001
	defaultDatabaseDriver  = "sqlite"
	defaultDatabaseURL     = "./data/forum.db"
	defaultSMTPHost        = "127.0.0.1"
	defaultSMTPPort        = 1025
	defaultFromEmail       = "no-reply@forum.local"
	defaultFromName        = "Gran Forum"
	defaultWebhookAttempts = 3
	defaultPublicDir       = "./public"
	defaultNotifyTimeout   = "15s"
	defaultLogLevel        = "info"
	defaultLogFormat       = "auto"
)

// Default returns the development configuration: local SQLite and a local SMTP
// catcher. PublicBaseURL is derived from the port during normalization.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:      defaultPort,
			PublicDir: defaultPublicDir,
		},
		Database: DatabaseConfig{
			Driver: defaultDatabaseDriver,
			URL:    defaultDatabaseURL,
		},
		SMTP: SMTPConfig{
			Host: defaultSMTPHost,
			Port: defaultSMTPPort,
		},
		Email: EmailConfig{
			FromEmail: defaultFromEmail,
			FromName:  defaultFromName,
		},
		WhatsApp: WhatsAppConfig{
			WebhookAttempts: defaultWebhookAttempts,
		},
		Notify: NotifyConfig{
			Timeout: defaultNotifyTimeout,
		},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
