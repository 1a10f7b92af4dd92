package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/granforum/forum/models"
)

// ThreadRepository handles database operations for threads and their posts.
type ThreadRepository struct {
	db *DB
}

func NewThreadRepository(db *DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// CreateThreadWithFirstPost inserts the thread and its opening post atomically.
// On success thread.Posts holds the first post.
func (r *ThreadRepository) CreateThreadWithFirstPost(ctx context.Context, thread *models.Thread, first *models.Post) error {
	if first.ThreadID != thread.ID {
		return fmt.Errorf("first post belongs to thread %s, not %s", first.ThreadID, thread.ID)
	}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		threadQuery := `
			INSERT INTO threads (id, group_id, author_id, title, created_at)
			VALUES (?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, r.db.Rebind(threadQuery),
			thread.ID, thread.GroupID, thread.AuthorID, thread.Title, thread.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}

		if err := insertPost(ctx, r.db, tx, first); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	thread.Posts = []models.Post{*first}
	return nil
}

// GetThreadByID retrieves a thread without its posts.
func (r *ThreadRepository) GetThreadByID(ctx context.Context, threadID string) (*models.Thread, error) {
	query := `SELECT id, group_id, author_id, title, created_at FROM threads WHERE id = ?`
	var t models.Thread
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), threadID).
		Scan(&t.ID, &t.GroupID, &t.AuthorID, &t.Title, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("thread not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get thread by ID: %w", err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// GetThreadsByGroupID lists a group's threads, newest first, without posts.
func (r *ThreadRepository) GetThreadsByGroupID(ctx context.Context, groupID string) ([]models.Thread, error) {
	query := `
		SELECT id, group_id, author_id, title, created_at
		FROM threads
		WHERE group_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads for group %s: %w", groupID, err)
	}
	defer rows.Close()

	threads := []models.Thread{}
	for rows.Next() {
		var t models.Thread
		if err := rows.Scan(&t.ID, &t.GroupID, &t.AuthorID, &t.Title, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating thread rows: %w", err)
	}
	return threads, nil
}
