package model

import "time"

// TriageAction is a semantic categorization applied to an item.
type TriageAction string

const (
	ActionDone        TriageAction = "done"
	ActionReplyNeeded TriageAction = "reply_needed"
	ActionUnsubscribe TriageAction = "unsubscribe"
	ActionRecord      TriageAction = "record"
)

// TriageStatus tracks the lifecycle of an optimistic triage mark.
type TriageStatus string

const (
	TriagePending   TriageStatus = "pending"
	TriageConfirmed TriageStatus = "confirmed"
	TriageFailed    TriageStatus = "failed"
)

// TriageRecord is the per-item outcome of a triage dispatch. Records are
// created optimistically and confirmed or rolled back when the
// collaborator call resolves.
type TriageRecord struct {
	ItemID    string       `json:"item_id"`
	Action    TriageAction `json:"action"`
	Status    TriageStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
