package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"` // Nil when the user registered without a phone
	CreatedAt time.Time `json:"createdAt"`
}
