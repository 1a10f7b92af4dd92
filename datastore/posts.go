package datastore

import (
	"context"
	"fmt"

	"github.com/granforum/forum/models"
)

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return insertPost(ctx, r.db, r.db, post)
}

// GetPostsByThreadID returns the posts of a thread, oldest first.
func (r *PostRepository) GetPostsByThreadID(ctx context.Context, threadID string) ([]models.Post, error) {
	query := `
		SELECT id, thread_id, author_id, content, via, created_at
		FROM posts
		WHERE thread_id = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.Content, &p.Via, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post row for thread %s: %w", threadID, err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows for thread %s: %w", threadID, err)
	}
	return posts, nil
}

func insertPost(ctx context.Context, db *DB, q querier, post *models.Post) error {
	if !post.Via.Valid() {
		return fmt.Errorf("invalid post origin %q", post.Via)
	}
	query := `
		INSERT INTO posts (id, thread_id, author_id, content, via, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, db.Rebind(query),
		post.ID, post.ThreadID, post.AuthorID, post.Content, string(post.Via), post.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}
