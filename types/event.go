package types

import "time"

// User lifecycle event types published to the message queue.
const (
	UserEventCreated = "user.created"
	UserEventUpdated = "user.updated"
	UserEventDeleted = "user.deleted"
)

// UserEvent is the payload published on user lifecycle changes.
type UserEvent struct {
	// Type is one of the UserEvent* constants.
	Type string `json:"type"`

	// UserID identifies the affected user.
	UserID int64 `json:"user_id"`

	// Username is the affected user's username at the time of the event.
	Username string `json:"username"`

	// At is when the event was emitted.
	At time.Time `json:"at"`
}
