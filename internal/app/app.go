package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqv/mailsweep/internal/engine"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/recorder"
	"github.com/hqv/mailsweep/internal/source"
	"github.com/hqv/mailsweep/internal/store"
	appsync "github.com/hqv/mailsweep/internal/sync"
	"github.com/hqv/mailsweep/internal/triage"
	"github.com/hqv/mailsweep/internal/ui"
	configview "github.com/hqv/mailsweep/internal/ui/config"
	"github.com/hqv/mailsweep/internal/ui/detail"
	helpview "github.com/hqv/mailsweep/internal/ui/help"
	"github.com/hqv/mailsweep/internal/ui/triagelist"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// engineEventMsg wraps an asynchronous engine outcome for the Bubble
// Tea runtime.
type engineEventMsg engine.Event

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewConfig
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing,
// layout, input-to-engine plumbing, and access to the persistence
// layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        *store.SQLiteStore
	cfg          *model.AppConfig
	keys         *KeyMap

	triageList triagelist.Model
	detail     detail.Model
	helpView   helpview.Model
	configView configview.Model

	poller  *appsync.Poller
	service *triage.Service
	engine  *engine.Engine

	adapters map[string]source.Source

	ready            bool
	unreadCount      int
	authErrorMessage string
	statusMsg        string

	keyRecording     bool
	keyRecordingItem string
}

// New creates the root application model. The engine is constructed
// from the static configuration and started immediately; it owns the
// interaction state for the whole session.
func New(s *store.SQLiteStore, cfg *model.AppConfig) Model {
	keys := DefaultKeyMap()
	p := appsync.New(s)

	rec := recorder.New(cfg.Recorder.CaptureCommand)
	svc := triage.NewService(s, rec)

	eng := engine.New(cfg.Engine, svc)
	eng.Start()

	return Model{
		currentView: ViewList,
		store:       s,
		cfg:         cfg,
		keys:        keys,
		triageList:  triagelist.New(s, keys, 80, 24),
		detail:      detail.New(s, keys, 80, 24),
		helpView:    helpview.New(keys, 80, 24),
		configView:  configview.New(s, keys, 80, 24),
		poller:      p,
		service:     svc,
		engine:      eng,
		adapters:    make(map[string]source.Source),
	}
}

// Init returns the initial commands to load the queue, register
// accounts, and subscribe to engine events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.triageList.Init(),
		m.registerSources(),
		m.waitForEngineEvent(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.triageList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tea.MouseMsg:
		if m.currentView == ViewList {
			return m.handleMouse(msg)
		}
		return m, nil

	case sourcesRegisteredMsg:
		m.adapters = msg.adapters
		// If no accounts are configured, enter first-run setup.
		if msg.count == 0 {
			m.previousView = m.currentView
			m.currentView = ViewConfig
			return m, m.configView.Init()
		}
		return m, m.poller.Start()

	case appsync.SyncResultMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authErrorMessage = ""
		}

		// After a sync completes, reload the queue and update the
		// unread notification count.
		return m, tea.Batch(
			m.triageList.LoadItems(),
			m.poller.WaitForNextResult(),
			m.fetchUnreadCount(),
		)

	case engineEventMsg:
		return m.handleEngineEvent(engine.Event(msg))

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case triagelist.ItemsLoadedMsg:
		// The engine evaluates against its own immutable snapshot;
		// swap it atomically whenever the queue reloads.
		engItems := make([]engine.Item, 0, len(msg.Items))
		for _, it := range msg.Items {
			engItems = append(engItems, engine.ItemFromModel(it))
		}
		m.engine.SetItems(engItems)

		var cmd tea.Cmd
		m.triageList, cmd = m.triageList.Update(msg)
		return m, cmd

	case triagelist.SelectedItemMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadItemDetail(msg.ItemID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		m.currentView = ViewList
		if _, marked := m.engine.ItemStatus(msg.ItemID); marked {
			return m, nil
		}
		return m, m.applyTriage(msg.ItemID, msg.Action)

	case triageAppliedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Triage failed: %v", msg.err)
			return m, m.fetchUnreadCount()
		}
		m.statusMsg = triageFeedback(msg.action, msg.outcome)
		return m, m.triageList.LoadItems()

	case recordingToggledMsg:
		if msg.err != nil {
			m.keyRecording = false
			m.keyRecordingItem = ""
			m.statusMsg = fmt.Sprintf("Recording failed: %v", msg.err)
			return m, nil
		}
		if msg.stopped {
			m.keyRecording = false
			m.keyRecordingItem = ""
			m.statusMsg = "Voice note saved"
		} else {
			m.statusMsg = "Recording... press m to stop"
		}
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = ViewList
		// Re-register accounts and reload after config changes.
		return m, tea.Batch(
			m.triageList.LoadItems(),
			m.registerSources(),
		)

	case configview.SourceSavedMsg, configview.SourceDeletedMsg:
		return m, tea.Batch(
			m.triageList.LoadItems(),
			m.registerSources(),
		)

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of (or route
// between) views. Returns handled=false when the active view should
// see the key instead.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.shutdown()
		return true, m, tea.Quit

	case "q":
		if m.currentView == ViewList {
			m.shutdown()
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case "c":
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewConfig
			return true, m, m.configView.Init()
		}

	case "r":
		if m.currentView == ViewList {
			m.poller.RefreshAll()
			return true, m, m.triageList.LoadItems()
		}

	case "j", "down":
		if m.currentView == ViewList && !m.searchActive() {
			mdl, cmd := m.scrollRows(1)
			return true, mdl, cmd
		}

	case "k", "up":
		if m.currentView == ViewList && !m.searchActive() {
			mdl, cmd := m.scrollRows(-1)
			return true, mdl, cmd
		}

	case "d":
		if m.currentView == ViewList && !m.searchActive() {
			return true, m, m.triageActiveItem(model.ActionDone)
		}

	case "p":
		if m.currentView == ViewList && !m.searchActive() {
			return true, m, m.triageActiveItem(model.ActionReplyNeeded)
		}

	case "u":
		if m.currentView == ViewList && !m.searchActive() {
			return true, m, m.triageActiveItem(model.ActionUnsubscribe)
		}

	case "m":
		if m.currentView == ViewList && !m.searchActive() {
			mdl, cmd := m.toggleKeyRecording()
			return true, mdl, cmd
		}

	case "R":
		if m.currentView == ViewList && !m.searchActive() {
			if m.keyRecording {
				m.service.CancelRecording()
			}
			m.engine.Reset()
			m.keyRecording = false
			m.keyRecordingItem = ""
			m.statusMsg = "Session reset"
			return true, m, nil
		}
	}

	return false, m, nil
}

// searchActive reports whether the queue's search input has focus, in
// which case plain letter keys belong to it.
func (m Model) searchActive() bool {
	return m.triageList.SearchMode()
}

// triageActiveItem applies a keyboard-driven triage action to the
// engine's active row. An item the engine already holds a mark for is
// skipped, so a key press during a pending drag dispatch cannot
// double-submit.
func (m Model) triageActiveItem(action model.TriageAction) tea.Cmd {
	item, ok := m.triageList.ActiveItem()
	if !ok {
		return nil
	}
	// Not a list sender: silent no-op, same as the mouse path.
	if action == model.ActionUnsubscribe && !item.IsBulkSender {
		return nil
	}
	if _, marked := m.engine.ItemStatus(item.ID); marked {
		return nil
	}
	return m.applyTriage(item.ID, action)
}

// toggleKeyRecording starts or stops a keyboard-driven voice capture
// for the active row.
func (m Model) toggleKeyRecording() (tea.Model, tea.Cmd) {
	if m.keyRecording {
		itemID := m.keyRecordingItem
		m.keyRecording = false
		return m, m.stopRecording(itemID)
	}

	item, ok := m.triageList.ActiveItem()
	if !ok {
		return m, nil
	}
	m.keyRecording = true
	m.keyRecordingItem = item.ID
	return m, m.startRecording(item.ID)
}

// handleEngineEvent folds an asynchronous engine outcome into the UI
// and re-subscribes to the event channel.
func (m Model) handleEngineEvent(ev engine.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case engine.EventTriageConfirmed:
		m.statusMsg = triageFeedback(ev.Action, ev.Outcome)
	case engine.EventTriageFailed:
		m.statusMsg = fmt.Sprintf("Triage failed: %v", ev.Err)
	case engine.EventRecordingStarted:
		m.statusMsg = "Recording... release to stop"
	case engine.EventRecordingStopped:
		m.statusMsg = "Voice note saved"
	case engine.EventRecordingFailed:
		m.statusMsg = fmt.Sprintf("Recording failed: %v", ev.Err)
	}

	return m, tea.Batch(
		m.waitForEngineEvent(),
		m.fetchUnreadCount(),
	)
}

// triageFeedback returns the status bar message for a confirmed triage.
func triageFeedback(action model.TriageAction, outcome engine.UnsubscribeOutcome) string {
	switch action {
	case model.ActionDone:
		return "Archived"
	case model.ActionReplyNeeded:
		return "Flagged for reply"
	case model.ActionUnsubscribe:
		switch outcome {
		case engine.UnsubscribeCompleted:
			return "Unsubscribed and archived"
		case engine.UnsubscribeManualRequired:
			return "Archived; unsubscribe needs manual follow-up"
		default:
			return "Archived; unsubscribe failed"
		}
	default:
		return "Done"
	}
}

// waitForEngineEvent returns a tea.Cmd that blocks until the engine
// emits its next asynchronous outcome.
func (m Model) waitForEngineEvent() tea.Cmd {
	events := m.engine.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return engineEventMsg(ev)
	}
}

// shutdown stops the background machinery before quitting.
func (m Model) shutdown() {
	if m.keyRecording {
		m.service.CancelRecording()
	}
	m.poller.Stop()
	m.engine.Stop()
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.triageList, cmd = m.triageList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Pull the engine's current frame so the queue renders the live
	// marker, proximity, and status state.
	m.triageList.SetFrame(m.engine.Frame())

	headerTitle := "mailsweep"
	if m.unreadCount > 0 {
		headerTitle = fmt.Sprintf("mailsweep [%d new]", m.unreadCount)
	}
	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.triageList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewConfig:
		return m.configView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the combined sync state.
func (m Model) syncStatus() string {
	statuses := m.poller.GetStatuses()
	if len(statuses) == 0 {
		return "no accounts"
	}

	running := 0
	errCount := 0
	var staleNames []string
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			errCount++
			staleNames = append(staleNames, s.Name)
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if errCount > 0 {
		return fmt.Sprintf("⚠ unreachable: %s", joinNames(staleNames))
	}
	return "idle"
}

// joinNames joins account names for display.
func joinNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	result := names[0]
	for i := 1; i < len(names); i++ {
		result += ", " + names[i]
	}
	return result
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Show auth error prominently when present.
	if m.authErrorMessage != "" && m.currentView == ViewList {
		return m.authErrorMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "esc back | d done | p reply | u unsubscribe | j/k scroll"
	case ViewConfig:
		return "a add | e edit | d delete | enter test | esc back"
	default:
		if m.statusMsg != "" {
			return m.statusMsg
		}
		return "drag to triage | d done | p reply | u unsub | m record | ? help | q quit"
	}
}
