package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/store"
	"github.com/hqv/mailsweep/tests/testutil"
)

func testItem(id, sender string) model.Item {
	now := time.Now().UTC().Truncate(time.Second)
	return model.Item{
		ID:           id,
		SourceType:   model.SourceTypeIMAP,
		SourceItemID: "uid-" + id,
		SourceID:     "src-1",
		Subject:      "subject " + id,
		Sender:       sender,
		SenderName:   "Sender",
		Snippet:      "snippet",
		ReceivedAt:   now,
		FetchedAt:    now,
	}
}

func TestUpsertAndGetItems(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	items := []model.Item{
		testItem("a", "one@example.com"),
		testItem("b", "two@example.com"),
	}
	if err := s.UpsertItems(ctx, items); err != nil {
		t.Fatalf("upserting items: %v", err)
	}

	got, err := s.GetItems(ctx, store.ItemFilter{})
	if err != nil {
		t.Fatalf("getting items: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}

	// Re-upserting the same IDs replaces rather than duplicates.
	items[0].Subject = "updated"
	if err := s.UpsertItems(ctx, items); err != nil {
		t.Fatalf("re-upserting items: %v", err)
	}
	byID, err := s.GetItemByID(ctx, "a")
	if err != nil {
		t.Fatalf("getting item a: %v", err)
	}
	if byID.Subject != "updated" {
		t.Fatalf("subject = %q, want updated", byID.Subject)
	}
}

func TestGetItemByIDNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetItemByID(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing item")
	}
	if !store.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetItemsUntriagedFilter(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.UpsertItems(ctx, []model.Item{
		testItem("a", "one@example.com"),
		testItem("b", "two@example.com"),
	}); err != nil {
		t.Fatalf("upserting items: %v", err)
	}

	// Item a is confirmed done; item b has a pending mark and stays in
	// the queue until it resolves.
	if err := s.UpsertTriageRecord(ctx, model.TriageRecord{
		ItemID: "a", Action: model.ActionDone, Status: model.TriageConfirmed,
	}); err != nil {
		t.Fatalf("upserting record: %v", err)
	}
	if err := s.UpsertTriageRecord(ctx, model.TriageRecord{
		ItemID: "b", Action: model.ActionDone, Status: model.TriagePending,
	}); err != nil {
		t.Fatalf("upserting record: %v", err)
	}

	got, err := s.GetItems(ctx, store.ItemFilter{Untriaged: true})
	if err != nil {
		t.Fatalf("getting untriaged items: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("untriaged items = %v, want just b", got)
	}
}

func TestTriageRecordLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.UpsertItems(ctx, []model.Item{testItem("a", "one@example.com")}); err != nil {
		t.Fatalf("upserting item: %v", err)
	}

	rec := model.TriageRecord{
		ItemID: "a", Action: model.ActionReplyNeeded, Status: model.TriagePending,
	}
	if err := s.UpsertTriageRecord(ctx, rec); err != nil {
		t.Fatalf("creating record: %v", err)
	}

	// Confirm.
	rec.Status = model.TriageConfirmed
	if err := s.UpsertTriageRecord(ctx, rec); err != nil {
		t.Fatalf("confirming record: %v", err)
	}
	got, err := s.GetTriageRecord(ctx, "a")
	if err != nil {
		t.Fatalf("getting record: %v", err)
	}
	if got.Status != model.TriageConfirmed || got.Action != model.ActionReplyNeeded {
		t.Fatalf("record = %+v", got)
	}

	// Rollback path.
	if err := s.DeleteTriageRecord(ctx, "a"); err != nil {
		t.Fatalf("deleting record: %v", err)
	}
	if _, err := s.GetTriageRecord(ctx, "a"); !store.IsNotFound(err) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestGetTriageRecordsByStatus(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.UpsertItems(ctx, []model.Item{
		testItem("a", "one@example.com"),
		testItem("b", "two@example.com"),
	}); err != nil {
		t.Fatalf("upserting items: %v", err)
	}
	for _, rec := range []model.TriageRecord{
		{ItemID: "a", Action: model.ActionDone, Status: model.TriageConfirmed},
		{ItemID: "b", Action: model.ActionDone, Status: model.TriagePending},
	} {
		if err := s.UpsertTriageRecord(ctx, rec); err != nil {
			t.Fatalf("upserting record: %v", err)
		}
	}

	pending := model.TriagePending
	got, err := s.GetTriageRecords(ctx, &pending)
	if err != nil {
		t.Fatalf("getting pending records: %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "b" {
		t.Fatalf("pending records = %v, want just b", got)
	}
}

func TestSubscriptionUpsertPreservesUnsubscribed(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	sub := model.Subscription{
		Sender:         "news@example.com",
		UnsubscribeURL: "https://example.com/unsub",
		OneClick:       true,
	}
	if err := s.UpsertSubscription(ctx, sub); err != nil {
		t.Fatalf("creating subscription: %v", err)
	}

	got, err := s.GetSubscriptionBySender(ctx, "news@example.com")
	if err != nil {
		t.Fatalf("getting subscription: %v", err)
	}
	if err := s.MarkUnsubscribed(ctx, got.ID); err != nil {
		t.Fatalf("marking unsubscribed: %v", err)
	}

	// Sync rediscovers the same sender; the flag must survive.
	if err := s.UpsertSubscription(ctx, sub); err != nil {
		t.Fatalf("re-upserting subscription: %v", err)
	}
	got, err = s.GetSubscriptionBySender(ctx, "news@example.com")
	if err != nil {
		t.Fatalf("re-getting subscription: %v", err)
	}
	if !got.Unsubscribed {
		t.Fatal("unsubscribed flag lost on rediscovery")
	}
	if !got.OneClick || got.UnsubscribeURL != "https://example.com/unsub" {
		t.Fatalf("subscription = %+v", got)
	}
}

func TestNotes(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.UpsertItems(ctx, []model.Item{testItem("a", "one@example.com")}); err != nil {
		t.Fatalf("upserting item: %v", err)
	}

	if err := s.CreateNote(ctx, model.Note{
		ItemID: "a", Transcript: "follow up next week",
	}); err != nil {
		t.Fatalf("creating note: %v", err)
	}

	notes, err := s.GetNotesForItem(ctx, "a")
	if err != nil {
		t.Fatalf("getting notes: %v", err)
	}
	if len(notes) != 1 || notes[0].Transcript != "follow up next week" {
		t.Fatalf("notes = %v", notes)
	}
}

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	n := model.Notification{
		ItemID:     "a",
		SourceType: model.SourceTypeIMAP,
		Message:    "triage failed: network down",
		CreatedAt:  time.Now(),
	}
	if err := s.CreateNotification(ctx, n); err != nil {
		t.Fatalf("creating notification: %v", err)
	}

	unread, err := s.GetUnreadNotifications(ctx)
	if err != nil {
		t.Fatalf("getting unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("got %d unread, want 1", len(unread))
	}

	if err := s.MarkNotificationRead(ctx, unread[0].ID); err != nil {
		t.Fatalf("marking read: %v", err)
	}
	unread, err = s.GetUnreadNotifications(ctx)
	if err != nil {
		t.Fatalf("re-getting unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("got %d unread after read, want 0", len(unread))
	}
}
