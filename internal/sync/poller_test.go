package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/source"
	"github.com/hqv/mailsweep/tests/testutil"
)

// fakeSource is a controllable source.Source implementation.
type fakeSource struct {
	result *source.FetchResult
	err    error
}

func (f *fakeSource) Type() model.SourceType { return model.SourceTypeIMAP }

func (f *fakeSource) ValidateConnection(ctx context.Context) (string, error) {
	return "user@example.com", nil
}

func (f *fakeSource) FetchItems(ctx context.Context, limit int) (*source.FetchResult, error) {
	return f.result, f.err
}

func (f *fakeSource) GetItemDetail(ctx context.Context, sourceItemID string) (*source.ItemDetail, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSource) ApplyTriage(ctx context.Context, sourceItemID string, action model.TriageAction) error {
	return nil
}

func testSourceConfig() model.SourceConfig {
	return model.SourceConfig{
		ID:              "src-1",
		Type:            "imap",
		Name:            "Personal",
		Enabled:         true,
		PollIntervalSec: 120,
	}
}

func TestFetchAndUpsertStoresItemsAndSubscriptions(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := New(s)

	now := time.Now().UTC().Truncate(time.Second)
	src := &fakeSource{
		result: &source.FetchResult{
			Items: []model.Item{
				{
					ID: "a", SourceType: model.SourceTypeIMAP,
					SourceItemID: "1", SourceID: "src-1",
					Subject: "hello", Sender: "one@example.com",
					ReceivedAt: now, FetchedAt: now,
				},
			},
			Subscriptions: []model.Subscription{
				{
					Sender:         "news@example.com",
					UnsubscribeURL: "https://example.com/unsub",
					OneClick:       true,
				},
			},
		},
	}
	cfg := testSourceConfig()
	p.RegisterSource(src, cfg)

	p.fetchAndUpsert(sourceEntry{src: src, cfg: cfg})

	select {
	case msg := <-p.resultCh:
		if msg.Error != nil {
			t.Fatalf("sync error: %v", msg.Error)
		}
		if msg.NewItemCount != 1 {
			t.Fatalf("new item count = %d, want 1", msg.NewItemCount)
		}
	case <-time.After(time.Second):
		t.Fatal("no sync result received")
	}

	ctx := context.Background()
	item, err := s.GetItemByID(ctx, "a")
	if err != nil {
		t.Fatalf("item not stored: %v", err)
	}
	if item.Subject != "hello" {
		t.Fatalf("item = %+v", item)
	}

	sub, err := s.GetSubscriptionBySender(ctx, "news@example.com")
	if err != nil {
		t.Fatalf("subscription not stored: %v", err)
	}
	if !sub.OneClick {
		t.Fatalf("subscription = %+v", sub)
	}

	// New items produce notifications.
	unread, err := s.GetUnreadNotifications(ctx)
	if err != nil {
		t.Fatalf("getting notifications: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("got %d notifications, want 1", len(unread))
	}
}

func TestFetchAndUpsertSecondSyncNotNew(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := New(s)

	now := time.Now().UTC().Truncate(time.Second)
	src := &fakeSource{
		result: &source.FetchResult{
			Items: []model.Item{
				{
					ID: "a", SourceType: model.SourceTypeIMAP,
					SourceItemID: "1", SourceID: "src-1",
					Subject: "hello", Sender: "one@example.com",
					ReceivedAt: now, FetchedAt: now,
				},
			},
		},
	}
	cfg := testSourceConfig()
	p.RegisterSource(src, cfg)

	p.fetchAndUpsert(sourceEntry{src: src, cfg: cfg})
	<-p.resultCh
	p.fetchAndUpsert(sourceEntry{src: src, cfg: cfg})

	msg := <-p.resultCh
	if msg.NewItemCount != 0 {
		t.Fatalf("second sync reported %d new items", msg.NewItemCount)
	}
}

func TestFetchAndUpsertAuthError(t *testing.T) {
	s := testutil.NewTestStore(t)
	p := New(s)

	src := &fakeSource{
		err: &source.AuthError{
			SourceType: model.SourceTypeIMAP,
			Message:    "credentials rejected",
		},
	}
	cfg := testSourceConfig()
	p.RegisterSource(src, cfg)

	p.fetchAndUpsert(sourceEntry{src: src, cfg: cfg})

	msg := <-p.resultCh
	if msg.AuthError == nil {
		t.Fatal("expected auth error message")
	}
	if msg.AuthError.SourceID != "src-1" {
		t.Fatalf("auth error source = %q", msg.AuthError.SourceID)
	}

	statuses := p.GetStatuses()
	if len(statuses) != 1 || statuses[0].State != SyncError {
		t.Fatalf("statuses = %+v", statuses)
	}
}
