// Package config loads forum settings from defaults, an optional TOML file and
// the environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigPathEnv names the environment variable pointing at a TOML config file.
const ConfigPathEnv = "FORUM_CONFIG"

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	SMTP     SMTPConfig     `toml:"smtp"`
	Email    EmailConfig    `toml:"email"`
	WhatsApp WhatsAppConfig `toml:"whatsapp"`
	Notify   NotifyConfig   `toml:"notify"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port int `toml:"port"`
	// PublicBaseURL prefixes the thread links in notifications.
	PublicBaseURL string `toml:"public_base_url"`
	// PublicDir holds the built web client; skipped when missing.
	PublicDir string `toml:"public_dir"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"` // postgres | sqlite
	URL    string `toml:"url"`
}

type SMTPConfig struct {
	Host   string `toml:"host"` // "log" only logs outgoing mail
	Port   int    `toml:"port"`
	Secure bool   `toml:"secure"`
	User   string `toml:"user"`
	Pass   string `toml:"pass"`
}

type EmailConfig struct {
	FromEmail string `toml:"from_email"`
	FromName  string `toml:"from_name"`
}

type WhatsAppConfig struct {
	WebhookURL      string `toml:"webhook_url"`
	WebhookSecret   string `toml:"webhook_secret"`
	WebhookAttempts int    `toml:"webhook_attempts"`
}

type NotifyConfig struct {
	Timeout string `toml:"timeout"`

	timeout time.Duration
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto | json | text
}

// TimeoutDuration is the parsed notify timeout. Valid after Load.
func (n NotifyConfig) TimeoutDuration() time.Duration {
	return n.timeout
}

// Load builds the configuration. path may be empty, in which case FORUM_CONFIG is
// consulted; no file at all is fine. It returns the file actually read, if any.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, "", err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv(ConfigPathEnv))
	}
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config file %s does not exist", path)
		}
		return "", fmt.Errorf("stat config %s: %w", path, err)
	}
	return path, nil
}
