package model

import "time"

// Note is a voice-note transcript captured while the triage marker was
// parked on the mic target.
type Note struct {
	// ID is the unique identifier for this note.
	ID string `json:"id"`

	// ItemID links the note to the item it was recorded against.
	ItemID string `json:"item_id"`

	// Transcript is the captured text.
	Transcript string `json:"transcript"`

	// CreatedAt is when the recording finished.
	CreatedAt time.Time `json:"created_at"`
}
