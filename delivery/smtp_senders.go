package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

const (
	smtpDialTimeout = 10 * time.Second
	// smtpSessionTimeout bounds a send whose context carries no deadline.
	smtpSessionTimeout = 30 * time.Second
)

// ContextSender is an enmime.Sender that can be bounded by a context.
// EmailChannel prefers SendContext when the sender offers it.
type ContextSender interface {
	enmime.Sender
	SendContext(ctx context.Context, reversePath string, recipients []string, msg []byte) error
}

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host   string
	Port   int
	Secure bool // implicit TLS (usually port 465)
	User   string
	Pass   string
}

// NewSMTPSender picks the transport for cfg. Host "log" selects LogEmailSender.
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) enmime.Sender {
	if strings.EqualFold(cfg.Host, "log") {
		return NewLogEmailSender(logger)
	}

	var auth smtp.Auth
	if cfg.User != "" && cfg.Pass != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return &SMTPSender{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:        cfg.Host,
		auth:        auth,
		implicitTLS: cfg.Secure,
	}
}

// SMTPSender runs one SMTP session per message. The whole session, greeting
// included, is bounded by the caller's context. With implicitTLS the
// connection is TLS from the first byte; otherwise STARTTLS is used whenever
// the server offers it.
type SMTPSender struct {
	addr        string
	host        string
	auth        smtp.Auth
	implicitTLS bool
}

func (s *SMTPSender) Send(reversePath string, recipients []string, msg []byte) error {
	return s.SendContext(context.Background(), reversePath, recipients, msg)
}

func (s *SMTPSender) SendContext(ctx context.Context, reversePath string, recipients []string, msg []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, smtpSessionTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{Timeout: smtpDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("failed to dial %s: %w", s.addr, err))
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set SMTP deadline: %w", err)
	}
	// Cancellation before the deadline must also unblock pending reads.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if s.implicitTLS {
		conn = tls.Client(conn, s.tlsConfig())
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return s.fail(ctx, fmt.Errorf("failed to start SMTP session: %w", err))
	}
	defer client.Close()

	if err := s.session(client, reversePath, recipients, msg); err != nil {
		return s.fail(ctx, err)
	}
	return nil
}

func (s *SMTPSender) session(client *smtp.Client, reversePath string, recipients []string, msg []byte) error {
	if !s.implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tlsConfig()); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}
	if s.auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(s.auth); err != nil {
				return fmt.Errorf("SMTP auth failed: %w", err)
			}
		}
	}
	if err := client.Mail(reversePath); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s rejected: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}
	return client.Quit()
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}
}

// fail attaches the context error when the session died because ctx ended.
// The connection deadline can fire a moment before ctx reports it.
func (s *SMTPSender) fail(ctx context.Context, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			ctxErr = context.DeadlineExceeded
		}
	}
	if ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

// LogEmailSender logs messages instead of sending them. Used in development.
type LogEmailSender struct {
	logger *slog.Logger
}

func NewLogEmailSender(logger *slog.Logger) *LogEmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmailSender{logger: logger.With("component", "email")}
}

func (s *LogEmailSender) Send(reversePath string, recipients []string, msg []byte) error {
	s.logger.Info("Email (log only)",
		"from", reversePath,
		"recipients", len(recipients),
		"bytes", len(msg),
	)
	s.logger.Debug("Email body", "message", string(msg))
	return nil
}
