package models

import "time"

// Subscription records a user's per-channel opt-in for a group.
// (UserID, GroupID) is unique; re-subscribing overwrites the flags.
type Subscription struct {
	UserID    string    `json:"userId"`
	GroupID   string    `json:"groupId"`
	EmailOn   bool      `json:"emailOn"`
	WaOn      bool      `json:"waOn"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscriber is a subscription joined to its owning user.
type Subscriber struct {
	Subscription
	User User
}
