package model

import "time"

// Notification represents an alert surfaced to the user, either about
// new inbox items or about a failed triage action.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// ItemID links this notification to the originating item.
	ItemID string `json:"item_id"`

	// SourceType identifies which integration generated this notification.
	SourceType SourceType `json:"source_type"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
