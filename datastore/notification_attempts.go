package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/granforum/forum/models"
)

type NotificationAttemptRepository struct {
	db *DB
}

func NewNotificationAttemptRepository(db *DB) *NotificationAttemptRepository {
	return &NotificationAttemptRepository{db: db}
}

func (r *NotificationAttemptRepository) CreateAttempt(ctx context.Context, attempt *models.NotificationAttempt) error {
	query := `
		INSERT INTO notification_attempts (id, group_id, event, channel, recipients, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var errMsg sql.NullString
	if attempt.ErrorMessage != "" {
		errMsg = sql.NullString{String: attempt.ErrorMessage, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		attempt.ID, attempt.GroupID, string(attempt.Event), attempt.Channel, attempt.Recipients,
		string(attempt.Status), errMsg, attempt.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification attempt: %w", err)
	}
	return nil
}

// GetAttemptsByGroupID returns the latest attempts for a group, newest first.
func (r *NotificationAttemptRepository) GetAttemptsByGroupID(ctx context.Context, groupID string, limit int) ([]models.NotificationAttempt, error) {
	query := `
		SELECT id, group_id, event, channel, recipients, status, error_message, created_at
		FROM notification_attempts
		WHERE group_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification attempts for group %s: %w", groupID, err)
	}
	defer rows.Close()

	attempts := []models.NotificationAttempt{}
	for rows.Next() {
		var (
			a      models.NotificationAttempt
			errMsg sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.GroupID, &a.Event, &a.Channel, &a.Recipients, &a.Status, &errMsg, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification attempt row: %w", err)
		}
		a.ErrorMessage = errMsg.String
		a.CreatedAt = a.CreatedAt.UTC()
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification attempt rows: %w", err)
	}
	return attempts, nil
}
