package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/granforum/forum/models"
)

// Channel flags a subscription can opt in to. The values match delivery channel names.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// SubscriptionRepository handles database operations for the subscriptions join table.
type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// UpsertSubscription creates the (user, group) subscription or overwrites the flags of
// the existing one. The stored row, including its original created_at, is written back
// into sub.
func (r *SubscriptionRepository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, group_id, email_on, wa_on, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, group_id)
		DO UPDATE SET email_on = excluded.email_on, wa_on = excluded.wa_on
	`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		sub.UserID, sub.GroupID, sub.EmailOn, sub.WaOn, sub.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert subscription of user %s to group %s: %w", sub.UserID, sub.GroupID, err)
	}

	stored, err := r.GetSubscription(ctx, sub.UserID, sub.GroupID)
	if err != nil {
		return err
	}
	*sub = *stored
	return nil
}

func (r *SubscriptionRepository) GetSubscription(ctx context.Context, userID, groupID string) (*models.Subscription, error) {
	query := `
		SELECT user_id, group_id, email_on, wa_on, created_at
		FROM subscriptions
		WHERE user_id = ? AND group_id = ?
	`
	var sub models.Subscription
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), userID, groupID).
		Scan(&sub.UserID, &sub.GroupID, &sub.EmailOn, &sub.WaOn, &sub.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("subscription not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return &sub, nil
}

// GetSubscriptionsByGroupID lists every subscription row of a group.
func (r *SubscriptionRepository) GetSubscriptionsByGroupID(ctx context.Context, groupID string) ([]models.Subscription, error) {
	query := `
		SELECT user_id, group_id, email_on, wa_on, created_at
		FROM subscriptions
		WHERE group_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions for group %s: %w", groupID, err)
	}
	defer rows.Close()

	subs := []models.Subscription{}
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(&sub.UserID, &sub.GroupID, &sub.EmailOn, &sub.WaOn, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row for group %s: %w", groupID, err)
		}
		sub.CreatedAt = sub.CreatedAt.UTC()
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows for group %s: %w", groupID, err)
	}
	return subs, nil
}

// GetOptedInSubscribers returns the subscriptions of a group whose flag for channel is
// on, joined to the owning users, in subscription order.
func (r *SubscriptionRepository) GetOptedInSubscribers(ctx context.Context, groupID, channel string) ([]models.Subscriber, error) {
	var flagColumn string
	switch channel {
	case ChannelEmail:
		flagColumn = "s.email_on"
	case ChannelWhatsApp:
		flagColumn = "s.wa_on"
	default:
		return nil, fmt.Errorf("unknown subscription channel %q", channel)
	}

	query := `
		SELECT s.user_id, s.group_id, s.email_on, s.wa_on, s.created_at,
		       u.id, u.name, u.email, u.phone, u.created_at
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.group_id = ? AND ` + flagColumn + ` = ?
		ORDER BY s.created_at ASC, s.user_id ASC
	`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), groupID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s subscribers for group %s: %w", channel, groupID, err)
	}
	defer rows.Close()

	var subscribers []models.Subscriber
	for rows.Next() {
		var (
			s     models.Subscriber
			phone sql.NullString
		)
		err := rows.Scan(
			&s.UserID, &s.GroupID, &s.EmailOn, &s.WaOn, &s.CreatedAt,
			&s.User.ID, &s.User.Name, &s.User.Email, &phone, &s.User.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber row for group %s: %w", groupID, err)
		}
		s.User.Phone = stringPtr(phone)
		s.CreatedAt = s.CreatedAt.UTC()
		s.User.CreatedAt = s.User.CreatedAt.UTC()
		subscribers = append(subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows for group %s: %w", groupID, err)
	}
	return subscribers, nil
}
