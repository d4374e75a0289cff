package detail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hqv/mailsweep/internal/keys"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/source"
	"github.com/hqv/mailsweep/internal/store"
	"github.com/hqv/mailsweep/internal/theme"
)

// BackMsg signals the parent to navigate back to the triage queue.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded message detail and any voice
// notes recorded against it.
type DetailLoadedMsg struct {
	Detail *source.ItemDetail
	Notes  []model.Note
}

// ActionMsg signals the parent to apply a triage action to the
// displayed message.
type ActionMsg struct {
	Action model.TriageAction
	ItemID string
}

// Model is the message detail view component.
type Model struct {
	detail   *source.ItemDetail
	notes    []model.Note
	viewport viewport.Model
	store    store.Store
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(s store.Store, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		store:    s,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.detail = msg.Detail
		m.notes = msg.Notes
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Done):
			return m.triageCmd(model.ActionDone)

		case key.Matches(msg, m.keys.Reply):
			return m.triageCmd(model.ActionReplyNeeded)

		case key.Matches(msg, m.keys.Unsubscribe):
			if m.detail != nil && m.detail.IsBulkSender {
				return m.triageCmd(model.ActionUnsubscribe)
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// triageCmd emits an ActionMsg for the displayed message.
func (m Model) triageCmd(action model.TriageAction) (Model, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}
	id := m.detail.ID
	return m, func() tea.Msg {
		return ActionMsg{Action: action, ItemID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading message...")
	}

	if m.detail == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.detail == nil {
		return ""
	}

	d := m.detail
	var sections []string

	// Subject
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(d.Subject))

	// Badges line: source + bulk-sender marker
	srcBadge := theme.HeaderStyle.Render(strings.ToUpper(string(d.SourceType)))
	badgeLine := srcBadge
	if d.IsBulkSender {
		listBadge := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorOrange).
			Render("MAILING LIST")
		badgeLine = lipgloss.JoinHorizontal(lipgloss.Top, srcBadge, "  ", listBadge)
	}
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	// Metadata table
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	from := d.Sender
	if d.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", d.SenderName, d.Sender)
	}
	sections = append(sections, fmt.Sprintf(
		"%s      %s",
		metaStyle.Render("From:"),
		valStyle.Render(from),
	))
	if !d.ReceivedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Received:"),
			valStyle.Render(d.ReceivedAt.Format("2006-01-02 15:04")),
		))
	}

	// Extra metadata from the source, in stable order
	if len(d.Metadata) > 0 {
		keys := make([]string, 0, len(d.Metadata))
		for k := range d.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sections = append(sections, fmt.Sprintf(
				"%s  %s",
				metaStyle.Render(k+":"),
				valStyle.Render(d.Metadata[k]),
			))
		}
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	body := d.RenderedBody
	if body == "" {
		body = d.Snippet
	}
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No content")
	}
	sections = append(sections, body)

	// Voice notes section
	if len(m.notes) > 0 {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		noteHeaderStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite)

		sections = append(sections, noteHeaderStyle.Render(
			fmt.Sprintf("Voice notes (%d)", len(m.notes)),
		))
		sections = append(sections, "")

		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for _, n := range m.notes {
			sections = append(sections, timeStyle.Render(
				n.CreatedAt.Format("2006-01-02 15:04"),
			))
			sections = append(sections, n.Transcript)
			sections = append(sections, "")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDetail updates the message being displayed and re-renders the
// content.
func (m *Model) SetDetail(detail *source.ItemDetail, notes []model.Note) {
	m.detail = detail
	m.notes = notes
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
