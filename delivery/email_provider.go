package delivery

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/jhillyerd/enmime"

	"github.com/granforum/forum/models"
	"github.com/granforum/forum/render"
)

const ChannelEmail = "email"

// EmailChannel sends one message per event with every recipient on BCC.
type EmailChannel struct {
	sender    enmime.Sender
	fromEmail string
	fromName  string
	logger    *slog.Logger
}

// NewEmailChannel builds an email channel over sender. The sender is shared by all
// dispatches; a nil sender disables the channel.
func NewEmailChannel(sender enmime.Sender, fromEmail, fromName string, logger *slog.Logger) *EmailChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailChannel{
		sender:    sender,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger.With("component", "email"),
	}
}

func (c *EmailChannel) Name() string { return ChannelEmail }

func (c *EmailChannel) Contact(user models.User) string { return user.Email }

func (c *EmailChannel) Enabled() bool { return c.sender != nil }

func (c *EmailChannel) Dispatch(ctx context.Context, recipients []string, msg render.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("email dispatch aborted: %w", err)
	}

	text, err := render.PlainText(msg.HTML)
	if err != nil {
		c.logger.Warn("Falling back to message text for text/plain part", "error", err)
		text = msg.Text
	}

	builder := enmime.Builder().
		From(c.fromName, c.fromEmail).
		Subject(msg.Subject).
		HTML([]byte(msg.HTML)).
		Text([]byte(text))
	for _, rcpt := range recipients {
		builder = builder.BCC("", rcpt)
	}

	part, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}
	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	if err := c.send(ctx, recipients, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send email to %d recipients: %w", len(recipients), err)
	}
	return nil
}

// send hands the encoded message to the sender, bounded by ctx when the
// sender supports it.
func (c *EmailChannel) send(ctx context.Context, recipients []string, raw []byte) error {
	if cs, ok := c.sender.(ContextSender); ok {
		return cs.SendContext(ctx, c.fromEmail, recipients, raw)
	}
	return c.sender.Send(c.fromEmail, recipients, raw)
}
