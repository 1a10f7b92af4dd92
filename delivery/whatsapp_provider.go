package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/granforum/forum/models"
	"github.com/granforum/forum/render"
	"github.com/granforum/forum/webutil"
)

const (
	ChannelWhatsApp = "whatsapp"

	defaultWebhookAttempts = 3
	maxErrorBodyBytes      = 512
)

// whatsAppPayload is the body the n8n workflow expects.
type whatsAppPayload struct {
	Phones []string `json:"phones"`
	Text   string   `json:"text"`
}

// WhatsAppChannel hands messages to an n8n workflow that relays them to WhatsApp.
type WhatsAppChannel struct {
	webhookURL string
	secret     string
	client     *http.Client
	attempts   uint
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewWhatsAppChannel builds the channel. An empty webhookURL disables it. When secret
// is set every request is signed with X-Forum-Signature.
func NewWhatsAppChannel(client *http.Client, webhookURL, secret string, attempts uint, logger *slog.Logger) *WhatsAppChannel {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if attempts == 0 {
		attempts = defaultWebhookAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhatsAppChannel{
		webhookURL: webhookURL,
		secret:     secret,
		client:     client,
		attempts:   attempts,
		retryDelay: 500 * time.Millisecond,
		logger:     logger.With("component", "whatsapp"),
	}
}

func (c *WhatsAppChannel) Name() string { return ChannelWhatsApp }

func (c *WhatsAppChannel) Contact(user models.User) string {
	if user.Phone == nil {
		return ""
	}
	return *user.Phone
}

func (c *WhatsAppChannel) Enabled() bool { return c.webhookURL != "" }

func (c *WhatsAppChannel) Dispatch(ctx context.Context, recipients []string, msg render.Message) error {
	body, err := json.Marshal(whatsAppPayload{Phones: recipients, Text: msg.Text})
	if err != nil {
		return fmt.Errorf("failed to marshal WhatsApp payload: %w", err)
	}

	err = retry.Do(
		func() error { return c.post(ctx, body) },
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(5*time.Second),
		retry.MaxJitter(max(c.retryDelay/2, time.Millisecond)),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying WhatsApp webhook after error", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("WhatsApp webhook failed: %w", err)
	}
	return nil
}

func (c *WhatsAppChannel) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create WhatsApp webhook request: %w", err))
	}
	req.Header.Set(webutil.HeaderContentType, webutil.ContentTypeJSON)
	if c.secret != "" {
		req.Header.Set(webutil.HeaderSignature, webutil.SignPayload(c.secret, body))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("WhatsApp webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	statusErr := fmt.Errorf("WhatsApp webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	// Client errors other than timeouts and throttling will not succeed on retry.
	if resp.StatusCode < 500 && resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
		return retry.Unrecoverable(statusErr)
	}
	return statusErr
}
