package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/source"
	"github.com/hqv/mailsweep/internal/store"
)

// SyncState represents the current state of a source sync operation.
type SyncState int

const (
	SyncIdle    SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the sync state for a single source.
type SyncStatus struct {
	SourceID string
	Name     string
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Items        []model.Item
	SourceID     string
	Error        error
	AuthError    *AuthErrorMsg
	NewItemCount int
}

// SyncStatusMsg is a tea.Msg with the current statuses of all sources.
type SyncStatusMsg struct {
	Statuses []SyncStatus
}

// AuthErrorMsg is a tea.Msg sent when a source returns an authentication error.
type AuthErrorMsg struct {
	SourceID string
	Message  string
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// fetchLimit caps how many recent messages one sync pulls.
const fetchLimit = 100

// sourceEntry holds a registered source and its configuration.
type sourceEntry struct {
	src source.Source
	cfg model.SourceConfig
}

// Poller orchestrates background polling of registered mail sources. It
// upserts fetched items and discovered subscriptions into the store and
// reports results to the Bubble Tea runtime over a channel.
type Poller struct {
	store     store.Store
	sources   []sourceEntry
	statuses  map[string]*SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan string
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a new Poller with the given store.
func New(s store.Store) *Poller {
	return &Poller{
		store:     s,
		statuses:  make(map[string]*SyncStatus),
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan string, 16),
		stopCh:    make(chan struct{}),
	}
}

// RegisterSource adds a source adapter and its configuration to the poller.
func (p *Poller) RegisterSource(src source.Source, cfg model.SourceConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sources = append(p.sources, sourceEntry{src: src, cfg: cfg})
	p.statuses[cfg.ID] = &SyncStatus{
		SourceID: cfg.ID,
		Name:     cfg.Name,
		State:    SyncIdle,
	}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns SyncResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	// Start a polling goroutine for each source
	for _, entry := range p.sources {
		go p.pollSource(entry)
	}

	// Return a subscription command that listens for results
	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of all registered sources.
func (p *Poller) RefreshAll() tea.Cmd {
	p.mu.Lock()
	sources := make([]sourceEntry, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	for _, entry := range sources {
		select {
		case p.triggerCh <- entry.cfg.ID:
		default:
			// Channel full; skip to avoid blocking
		}
	}

	return nil
}

// RefreshSource triggers an immediate poll of a single source.
func (p *Poller) RefreshSource(sourceID string) tea.Cmd {
	select {
	case p.triggerCh <- sourceID:
	default:
	}
	return nil
}

// GetStatuses returns the current sync status of all registered sources.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// pollSource runs the polling loop for a single source.
func (p *Poller) pollSource(entry sourceEntry) {
	interval := time.Duration(entry.cfg.PollIntervalSec) * time.Second
	if interval <= 0 {
		interval = 120 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.fetchAndUpsert(entry)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchAndUpsert(entry)
		case triggerID := <-p.triggerCh:
			if triggerID == entry.cfg.ID {
				p.fetchAndUpsert(entry)
			}
		}
	}
}

// fetchAndUpsert performs a single fetch operation, upserts items and
// discovered subscriptions to the store, and sends a SyncResultMsg on
// the result channel.
func (p *Poller) fetchAndUpsert(entry sourceEntry) {
	id := entry.cfg.ID
	p.setStatus(id, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	result, err := entry.src.FetchItems(ctx, fetchLimit)

	if err != nil {
		p.setStatus(id, SyncError, err)

		// Detect auth errors and emit a specific message.
		if source.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				SourceID: id,
				Error:    err,
				AuthError: &AuthErrorMsg{
					SourceID: id,
					Message: fmt.Sprintf(
						"%s: authentication expired. Press 'c' to reconfigure.",
						entry.cfg.Name,
					),
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{SourceID: id, Error: err})
		return
	}

	items := result.Items

	// Detect new items by checking which ones don't exist in the store yet.
	var newItemIDs map[string]bool
	if len(items) > 0 {
		existingItems, _ := p.store.GetItems(ctx, store.ItemFilter{
			Limit: 1000,
		})
		existingIDs := make(map[string]bool, len(existingItems))
		for _, it := range existingItems {
			existingIDs[it.ID] = true
		}
		newItemIDs = make(map[string]bool)
		for _, it := range items {
			if !existingIDs[it.ID] {
				newItemIDs[it.ID] = true
			}
		}
	}

	if len(items) > 0 {
		if upsertErr := p.store.UpsertItems(ctx, items); upsertErr != nil {
			p.setStatus(id, SyncError, upsertErr)
			p.sendResult(SyncResultMsg{SourceID: id, Error: upsertErr})
			return
		}
	}

	// Record mailing-list senders discovered in this batch so the
	// unsubscribe dispatcher can resolve them later.
	for _, sub := range result.Subscriptions {
		_ = p.store.UpsertSubscription(ctx, sub)
	}

	// Create notifications for new items only.
	newItemCount := len(newItemIDs)
	if newItemCount > 0 {
		for _, it := range items {
			if !newItemIDs[it.ID] {
				continue
			}
			notification := model.Notification{
				ItemID:     it.ID,
				SourceType: it.SourceType,
				Message:    fmt.Sprintf("New mail from %s: %s", it.Sender, it.Subject),
				CreatedAt:  time.Now(),
			}
			_ = p.store.CreateNotification(ctx, notification)
		}
	}

	p.setStatus(id, SyncIdle, nil)
	p.sendResult(SyncResultMsg{
		Items:        items,
		SourceID:     id,
		NewItemCount: newItemCount,
	})
}

// setStatus updates the sync status for a source.
func (p *Poller) setStatus(id string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[id]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel. After receiving a result, it returns both the
// result message and a new waitForResult command to keep listening.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
