package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/granforum/forum/models"
	"github.com/granforum/forum/render"
)

// Result describes what happened on one channel during a fan-out.
type Result struct {
	Channel    string
	Recipients int
	// Skipped is set when no outbound call was made: the channel is disabled
	// or nobody opted in with a usable contact.
	Skipped bool
	Err     error
}

// Notifier fans a message out to the subscribers of a group over every channel.
type Notifier struct {
	channels    []Channel
	subscribers SubscriberSource
	attempts    AttemptRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewNotifier builds a Notifier. Channels are notified in the order given.
// attempts may be nil, in which case nothing is recorded.
func NewNotifier(subscribers SubscriberSource, attempts AttemptRecorder, logger *slog.Logger, channels ...Channel) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		channels:    channels,
		subscribers: subscribers,
		attempts:    attempts,
		logger:      logger.With("component", "notifier"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NotifyGroup sends msg to every opted-in subscriber of groupID, one batched call per
// channel. A failing channel never stops the others; failures are logged, recorded
// and reported in the returned results.
func (n *Notifier) NotifyGroup(ctx context.Context, groupID string, event models.NotificationEvent, msg render.Message) []Result {
	results := make([]Result, 0, len(n.channels))
	for _, ch := range n.channels {
		results = append(results, n.notifyChannel(ctx, ch, groupID, event, msg))
	}
	return results
}

func (n *Notifier) notifyChannel(ctx context.Context, ch Channel, groupID string, event models.NotificationEvent, msg render.Message) Result {
	res := Result{Channel: ch.Name()}
	log := n.logger.With("channel", ch.Name(), "group_id", groupID, "event", string(event))

	if !ch.Enabled() {
		log.Debug("Channel not configured, skipping")
		res.Skipped = true
		return res
	}

	subs, err := n.subscribers.GetOptedInSubscribers(ctx, groupID, ch.Name())
	if err != nil {
		log.Error("Failed to load subscribers", "error", err)
		res.Err = fmt.Errorf("failed to load subscribers: %w", err)
		n.record(ctx, groupID, event, res)
		return res
	}

	recipients := uniqueContacts(ch, subs)
	if len(recipients) == 0 {
		log.Debug("No reachable subscribers, skipping")
		res.Skipped = true
		return res
	}
	res.Recipients = len(recipients)

	res.Err = ch.Dispatch(ctx, recipients, msg)
	if res.Err != nil {
		log.Error("Notification dispatch failed", "recipients", res.Recipients, "error", res.Err)
	} else {
		log.Info("Notification dispatched", "recipients", res.Recipients)
	}

	n.record(ctx, groupID, event, res)
	return res
}

func (n *Notifier) record(ctx context.Context, groupID string, event models.NotificationEvent, res Result) {
	if n.attempts == nil {
		return
	}
	attempt := models.NotificationAttempt{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		Event:      event,
		Channel:    res.Channel,
		Recipients: res.Recipients,
		Status:     models.NotificationStatusSent,
		CreatedAt:  n.now(),
	}
	if res.Err != nil {
		attempt.Status = models.NotificationStatusFailed
		attempt.ErrorMessage = res.Err.Error()
	}
	// The dispatch may have exhausted ctx; the log entry must still be written.
	if err := n.attempts.CreateAttempt(context.WithoutCancel(ctx), &attempt); err != nil {
		n.logger.Warn("Failed to record notification attempt", "group_id", groupID, "channel", res.Channel, "error", err)
	}
}

// uniqueContacts projects each subscriber onto the channel's contact field,
// dropping blanks and duplicates while keeping subscription order.
func uniqueContacts(ch Channel, subs []models.Subscriber) []string {
	seen := make(map[string]struct{}, len(subs))
	var contacts []string
	for _, s := range subs {
		c := strings.TrimSpace(ch.Contact(s.User))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		contacts = append(contacts, c)
	}
	return contacts
}
