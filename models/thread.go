package models

import "time"

type Thread struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Posts     []Post    `json:"posts,omitempty"` // Ordered oldest first
}
