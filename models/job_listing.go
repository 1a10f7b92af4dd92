package models

import "time"

// JobListing is an externally sourced job posting. URL is the natural key.
type JobListing struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Company     *string    `json:"company"`
	Location    *string    `json:"location"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt"`
	Tags        *string    `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
