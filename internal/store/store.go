package store

import (
	"context"

	"github.com/hqv/mailsweep/internal/model"
)

// ItemFilter controls filtering, sorting, and pagination for item queries.
type ItemFilter struct {
	SourceID  *string
	Sender    *string
	Query     *string // search subject + snippet
	Untriaged bool    // only items without a confirmed triage record
	SortBy    string  // "received_at", "fetched_at", "sender", "subject"
	SortDesc  bool
	Limit     int
	Offset    int
}

// Store defines the persistence interface for inbox items, sources,
// triage records, subscriptions, voice notes, and notifications.
type Store interface {
	// === Items ===

	UpsertItems(ctx context.Context, items []model.Item) error
	GetItems(ctx context.Context, opts ItemFilter) ([]model.Item, error)
	GetItemByID(ctx context.Context, id string) (*model.Item, error)

	// === Sources ===

	UpsertSource(ctx context.Context, src model.SourceConfig) error
	GetSources(ctx context.Context) ([]model.SourceConfig, error)
	DeleteSource(ctx context.Context, id string) error

	// === Triage records ===

	UpsertTriageRecord(ctx context.Context, rec model.TriageRecord) error
	GetTriageRecord(ctx context.Context, itemID string) (*model.TriageRecord, error)
	GetTriageRecords(ctx context.Context, status *model.TriageStatus) ([]model.TriageRecord, error)
	DeleteTriageRecord(ctx context.Context, itemID string) error

	// === Subscriptions ===

	UpsertSubscription(ctx context.Context, sub model.Subscription) error
	GetSubscriptionByID(ctx context.Context, id string) (*model.Subscription, error)
	GetSubscriptionBySender(ctx context.Context, sender string) (*model.Subscription, error)
	GetSubscriptions(ctx context.Context) ([]model.Subscription, error)
	MarkUnsubscribed(ctx context.Context, id string) error

	// === Voice notes ===

	CreateNote(ctx context.Context, note model.Note) error
	GetNotesForItem(ctx context.Context, itemID string) ([]model.Note, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}
