package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/granforum/forum/models"
)

// GroupRepository handles database operations for forum_groups.
type GroupRepository struct {
	db *DB
}

func NewGroupRepository(db *DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.Name == "" {
		return fmt.Errorf("group name cannot be empty")
	}
	query := `INSERT INTO forum_groups (id, name, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), group.ID, group.Name, group.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func (r *GroupRepository) GetGroupByID(ctx context.Context, groupID string) (*models.Group, error) {
	query := `SELECT id, name, created_at FROM forum_groups WHERE id = ?`
	var group models.Group
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), groupID).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("group not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get group by ID: %w", err)
	}
	group.CreatedAt = group.CreatedAt.UTC()
	return &group, nil
}

// GetGroups lists every group, newest first.
func (r *GroupRepository) GetGroups(ctx context.Context) ([]models.Group, error) {
	query := `SELECT id, name, created_at FROM forum_groups ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		group.CreatedAt = group.CreatedAt.UTC()
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}
	return groups, nil
}
