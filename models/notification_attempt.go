package models

import "time"

type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// NotificationEvent names the group mutation that triggered a fan-out.
type NotificationEvent string

const (
	NotificationEventThreadCreated NotificationEvent = "thread.created"
	NotificationEventReplyCreated  NotificationEvent = "reply.created"
	NotificationEventTest          NotificationEvent = "test"
)

// NotificationAttempt logs one batched dispatch on one channel,
// its status and any error returned by the transport.
type NotificationAttempt struct {
	ID           string             `json:"id"`
	GroupID      string             `json:"groupId"`
	Event        NotificationEvent  `json:"event"`
	Channel      string             `json:"channel"`
	Recipients   int                `json:"recipients"`
	Status       NotificationStatus `json:"status"`
	ErrorMessage string             `json:"error,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}
