// Package triage binds the interaction engine to the mail sources, the
// local store, and the voice recorder. It implements the engine's
// collaborator contract: every method here may block on network I/O and
// is only ever called from the engine's business goroutine.
package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/hqv/mailsweep/internal/engine"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/recorder"
	"github.com/hqv/mailsweep/internal/source"
	"github.com/hqv/mailsweep/internal/source/mail"
	"github.com/hqv/mailsweep/internal/store"
)

// Service implements engine.Collaborators.
type Service struct {
	store    store.Store
	sources  map[string]source.Source
	recorder *recorder.Recorder

	// oneClick is swappable for tests.
	oneClick func(ctx context.Context, url string) error
}

// NewService creates a triage service over the given store and
// recorder. Sources are registered per configured source ID.
func NewService(s store.Store, rec *recorder.Recorder) *Service {
	return &Service{
		store:    s,
		sources:  make(map[string]source.Source),
		recorder: rec,
		oneClick: mail.OneClickUnsubscribe,
	}
}

// RegisterSource makes a mail source available for triage execution.
func (s *Service) RegisterSource(sourceID string, src source.Source) {
	s.sources[sourceID] = src
}

// SubmitTriage applies a categorization to an item: the backing mailbox
// is updated first, then the confirmed record is persisted. On failure
// the persistent record is removed and a notification is created, so
// the item stays triageable.
func (s *Service) SubmitTriage(
	ctx context.Context,
	itemID string,
	action model.TriageAction,
) error {
	item, err := s.store.GetItemByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("loading item for triage: %w", err)
	}

	src, ok := s.sources[item.SourceID]
	if !ok {
		return fmt.Errorf("no source registered for %s", item.SourceID)
	}

	if err := s.store.UpsertTriageRecord(ctx, model.TriageRecord{
		ItemID: itemID,
		Action: action,
		Status: model.TriagePending,
	}); err != nil {
		return fmt.Errorf("recording pending triage: %w", err)
	}

	if err := src.ApplyTriage(ctx, item.SourceItemID, action); err != nil {
		_ = s.store.DeleteTriageRecord(ctx, itemID)
		_ = s.store.CreateNotification(ctx, model.Notification{
			ItemID:     itemID,
			SourceType: item.SourceType,
			Message:    fmt.Sprintf("Triage %s failed for %q: %v", action, item.Subject, err),
			CreatedAt:  time.Now(),
		})
		return fmt.Errorf("applying triage %s to %s: %w", action, itemID, err)
	}

	if err := s.store.UpsertTriageRecord(ctx, model.TriageRecord{
		ItemID: itemID,
		Action: action,
		Status: model.TriageConfirmed,
	}); err != nil {
		return fmt.Errorf("confirming triage: %w", err)
	}

	return nil
}

// ResolveSubscription finds the subscription record matching a sender
// address and returns its ID.
func (s *Service) ResolveSubscription(
	ctx context.Context,
	sender string,
) (string, error) {
	sub, err := s.store.GetSubscriptionBySender(ctx, sender)
	if err != nil {
		return "", fmt.Errorf("resolving subscription for %s: %w", sender, err)
	}
	return sub.ID, nil
}

// Unsubscribe cancels a subscription by ID. A one-click endpoint is
// POSTed unattended; anything else needs the user's mail client or
// browser, reported as manual_required.
func (s *Service) Unsubscribe(
	ctx context.Context,
	subscriptionID string,
) (engine.UnsubscribeOutcome, error) {
	sub, err := s.store.GetSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return engine.UnsubscribeFailed,
			fmt.Errorf("loading subscription %s: %w", subscriptionID, err)
	}

	if sub.Unsubscribed {
		return engine.UnsubscribeCompleted, nil
	}

	if sub.OneClick && sub.UnsubscribeURL != "" {
		if err := s.oneClick(ctx, sub.UnsubscribeURL); err != nil {
			return engine.UnsubscribeFailed,
				fmt.Errorf("one-click unsubscribe for %s: %w", sub.Sender, err)
		}
		if err := s.store.MarkUnsubscribed(ctx, sub.ID); err != nil {
			return engine.UnsubscribeCompleted,
				fmt.Errorf("marking %s unsubscribed: %w", sub.Sender, err)
		}
		return engine.UnsubscribeCompleted, nil
	}

	// A plain URL or a mailto target needs user interaction.
	return engine.UnsubscribeManualRequired, nil
}

// StartRecording begins voice capture against an item.
func (s *Service) StartRecording(ctx context.Context, itemID string) error {
	return s.recorder.Start(ctx, itemID)
}

// StopRecording ends voice capture and persists the transcript as a
// note on the item.
func (s *Service) StopRecording(
	ctx context.Context,
	itemID string,
) (string, error) {
	transcript, err := s.recorder.Stop(ctx, itemID)
	if err != nil {
		return "", err
	}

	if transcript != "" {
		if err := s.store.CreateNote(ctx, model.Note{
			ItemID:     itemID,
			Transcript: transcript,
			CreatedAt:  time.Now(),
		}); err != nil {
			return transcript, fmt.Errorf("saving note for %s: %w", itemID, err)
		}
	}

	return transcript, nil
}

// CancelRecording kills a capture in progress and discards its output,
// e.g. on a session reset or shutdown while a capture is running.
func (s *Service) CancelRecording() {
	s.recorder.Cancel()
}
