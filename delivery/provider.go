package delivery

import (
	"context"

	"github.com/granforum/forum/models"
	"github.com/granforum/forum/render"
)

// Channel is the adapter interface for notification transports.
// Implement this to add new channel types (email, WhatsApp, SMS, etc.).
type Channel interface {
	// Name identifies the channel and selects the subscription flag ("email" or "whatsapp").
	Name() string
	// Contact projects the address this channel uses out of a user. Empty means unreachable.
	Contact(user models.User) string
	// Enabled reports whether the underlying integration is configured.
	Enabled() bool
	// Dispatch delivers msg to every recipient in a single outbound call.
	Dispatch(ctx context.Context, recipients []string, msg render.Message) error
}

// SubscriberSource looks up the users of a group opted in to a channel.
type SubscriberSource interface {
	GetOptedInSubscribers(ctx context.Context, groupID, channel string) ([]models.Subscriber, error)
}

// AttemptRecorder persists the outcome of a dispatch.
type AttemptRecorder interface {
	CreateAttempt(ctx context.Context, attempt *models.NotificationAttempt) error
}
