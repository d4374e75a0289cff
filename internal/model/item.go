package model

import "time"

// SourceType identifies the origin system of an item.
type SourceType string

const (
	SourceTypeIMAP SourceType = "imap"
)

// Item is a single inbox message queued for triage.
type Item struct {
	// ID is the internal unique identifier for this item.
	ID string `json:"id"`

	// SourceType identifies which integration produced this item.
	SourceType SourceType `json:"source_type"`

	// SourceItemID is the item's identifier within its source system
	// (e.g., the IMAP UID).
	SourceItemID string `json:"source_item_id"`

	// SourceID is the identifier for the configured source instance.
	SourceID string `json:"source_id"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Sender is the From address of the message.
	Sender string `json:"sender"`

	// SenderName is the display name of the sender, if any.
	SenderName string `json:"sender_name"`

	// Snippet is a short preview of the message body.
	Snippet string `json:"snippet"`

	// IsBulkSender reports whether the message carries list headers
	// (List-Unsubscribe), which makes the item eligible for the
	// unsubscribe triage target.
	IsBulkSender bool `json:"is_bulk_sender"`

	// ReceivedAt is when the message arrived at the mailbox.
	ReceivedAt time.Time `json:"received_at"`

	// FetchedAt is when this item was last retrieved from the source.
	FetchedAt time.Time `json:"fetched_at"`
}
