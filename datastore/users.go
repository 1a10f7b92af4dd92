package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/granforum/forum/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		user.ID, user.Name, user.Email, nullString(user.Phone), user.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT id, name, email, phone, created_at
		FROM users
		WHERE id = ?
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, r.db.Rebind(query), userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByPhone returns the earliest registered user whose phone matches exactly.
func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `
		SELECT id, name, email, phone, created_at
		FROM users
		WHERE phone = ?
		ORDER BY created_at ASC
		LIMIT 1
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, r.db.Rebind(query), phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no user with phone %q: %w", phone, err)
		}
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user  models.User
		phone sql.NullString
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &phone, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Phone = stringPtr(phone)
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
