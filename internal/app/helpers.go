package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqv/mailsweep/internal/engine"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/source"
	"github.com/hqv/mailsweep/internal/ui/detail"
)

// triageAppliedMsg reports the outcome of a keyboard- or detail-driven
// triage action.
type triageAppliedMsg struct {
	itemID  string
	action  model.TriageAction
	outcome engine.UnsubscribeOutcome
	err     error
}

// recordingToggledMsg reports a keyboard-driven recording transition.
type recordingToggledMsg struct {
	stopped bool
	err     error
}

// loadItemDetail returns a command that loads the full message for an
// item, fetching the body from its source adapter when one is
// registered and falling back to the stored snippet otherwise.
func (m Model) loadItemDetail(itemID string) tea.Cmd {
	s := m.store
	adapters := m.adapters
	return func() tea.Msg {
		ctx := context.Background()

		item, err := s.GetItemByID(ctx, itemID)
		if err != nil || item == nil {
			return detail.DetailLoadedMsg{Detail: nil}
		}

		notes, _ := s.GetNotesForItem(ctx, itemID)

		if adapter, ok := adapters[item.SourceID]; ok {
			if d, err := adapter.GetItemDetail(ctx, item.SourceItemID); err == nil {
				d.Item = *item
				return detail.DetailLoadedMsg{Detail: d, Notes: notes}
			}
		}

		return detail.DetailLoadedMsg{
			Detail: &source.ItemDetail{
				Item:         *item,
				RenderedBody: item.Snippet,
				Metadata:     make(map[string]string),
			},
			Notes: notes,
		}
	}
}

// applyTriage runs a triage action through the service outside the
// engine's drag path, e.g. from a keyboard fallback or the detail
// view. Unsubscribe follows the same sequence as the engine: resolve
// the subscription, attempt the cancellation, then categorize done.
func (m Model) applyTriage(itemID string, action model.TriageAction) tea.Cmd {
	svc := m.service
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		if action != model.ActionUnsubscribe {
			err := svc.SubmitTriage(ctx, itemID, action)
			return triageAppliedMsg{itemID: itemID, action: action, err: err}
		}

		outcome := engine.UnsubscribeFailed
		item, err := s.GetItemByID(ctx, itemID)
		if err == nil && item != nil {
			if subID, rerr := svc.ResolveSubscription(ctx, item.Sender); rerr == nil {
				outcome, _ = svc.Unsubscribe(ctx, subID)
			}
		}

		if err := svc.SubmitTriage(ctx, itemID, model.ActionDone); err != nil {
			return triageAppliedMsg{itemID: itemID, action: action, outcome: outcome, err: err}
		}
		return triageAppliedMsg{itemID: itemID, action: action, outcome: outcome}
	}
}

// startRecording begins a keyboard-driven voice capture.
func (m Model) startRecording(itemID string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		err := svc.StartRecording(context.Background(), itemID)
		return recordingToggledMsg{stopped: false, err: err}
	}
}

// stopRecording ends a keyboard-driven voice capture; the service
// persists the transcript as a note.
func (m Model) stopRecording(itemID string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		_, err := svc.StopRecording(context.Background(), itemID)
		return recordingToggledMsg{stopped: true, err: err}
	}
}

// fetchUnreadCount returns a tea.Cmd that queries the store for the
// number of unread notifications.
func (m Model) fetchUnreadCount() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		notifications, err := s.GetUnreadNotifications(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: len(notifications)}
	}
}
