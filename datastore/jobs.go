package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/granforum/forum/models"
)

// JobListingRepository handles database operations for job_listings.
type JobListingRepository struct {
	db *DB
}

func NewJobListingRepository(db *DB) *JobListingRepository {
	return &JobListingRepository{db: db}
}

// UpsertJobListings inserts or updates every listing keyed by URL in a single
// transaction. Either all listings are written or none are.
// Existing rows keep their id and created_at.
func (r *JobListingRepository) UpsertJobListings(ctx context.Context, listings []models.JobListing) (int, error) {
	query := r.db.Rebind(`
		INSERT INTO job_listings (id, title, company, location, source, url, published_at, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			company = excluded.company,
			location = excluded.location,
			source = excluded.source,
			published_at = excluded.published_at,
			tags = excluded.tags,
			updated_at = excluded.updated_at
	`)

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		for i := range listings {
			l := &listings[i]
			_, err := tx.ExecContext(ctx, query,
				l.ID, l.Title, nullString(l.Company), nullString(l.Location), l.Source, l.URL,
				nullTime(l.PublishedAt), nullString(l.Tags), l.CreatedAt.UTC(), l.UpdatedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("failed to upsert job listing %s: %w", l.URL, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(listings), nil
}

const jobListingColumns = `id, title, company, location, source, url, published_at, tags, created_at, updated_at`

// GetRecentJobListings returns up to limit listings, most recently created first.
func (r *JobListingRepository) GetRecentJobListings(ctx context.Context, limit int) ([]models.JobListing, error) {
	query := `SELECT ` + jobListingColumns + ` FROM job_listings ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job listings: %w", err)
	}
	defer rows.Close()

	listings := []models.JobListing{}
	for rows.Next() {
		l, err := scanJobListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job listing row: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job listing rows: %w", err)
	}
	return listings, nil
}

func (r *JobListingRepository) GetJobListingByURL(ctx context.Context, url string) (*models.JobListing, error) {
	query := `SELECT ` + jobListingColumns + ` FROM job_listings WHERE url = ?`
	l, err := scanJobListing(r.db.QueryRowContext(ctx, r.db.Rebind(query), url))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job listing not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get job listing by URL: %w", err)
	}
	return l, nil
}

func (r *JobListingRepository) CountJobListings(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count job listings: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobListing(row rowScanner) (*models.JobListing, error) {
	var (
		l                       models.JobListing
		company, location, tags sql.NullString
		publishedAt             sql.NullTime
	)
	err := row.Scan(&l.ID, &l.Title, &company, &location, &l.Source, &l.URL,
		&publishedAt, &tags, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Company = stringPtr(company)
	l.Location = stringPtr(location)
	l.Tags = stringPtr(tags)
	l.PublishedAt = timePtr(publishedAt)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}
