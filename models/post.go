package models

import "time"

// PostVia records the channel a post originated from.
type PostVia string

const (
	PostViaWeb      PostVia = "web"
	PostViaWhatsApp PostVia = "whatsapp"
)

func (v PostVia) Valid() bool {
	return v == PostViaWeb || v == PostViaWhatsApp
}

type Post struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	Via       PostVia   `json:"via"`
	CreatedAt time.Time `json:"createdAt"`
}
