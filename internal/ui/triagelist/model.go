package triagelist

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hqv/mailsweep/internal/engine"
	"github.com/hqv/mailsweep/internal/keys"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/store"
	"github.com/hqv/mailsweep/internal/theme"
)

// ItemsLoadedMsg is sent when the triage queue has been loaded from
// the store.
type ItemsLoadedMsg struct {
	Items []model.Item
}

// SelectedItemMsg is sent when the user opens an item's detail view.
type SelectedItemMsg struct {
	ItemID string
}

// Model is the triage queue view. The engine decides which row is
// active and where the marker sits; this model only renders that
// state and loads items from the store.
type Model struct {
	store store.Store
	keys  *keys.KeyMap

	items []model.Item
	frame engine.RenderState

	filter      store.ItemFilter
	searchMode  bool
	searchInput textinput.Model

	scrollRows int
	width      int
	height     int
}

// New creates a new triage list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search mail..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		store: s,
		keys:  k,
		filter: store.ItemFilter{
			Untriaged: true,
			SortBy:    "received_at",
		},
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial triage queue.
func (m Model) Init() tea.Cmd {
	return m.LoadItems()
}

// Update handles messages for the triage list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ItemsLoadedMsg:
		m.items = msg.Items
		m.clampScroll()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query != "" {
			m.filter.Query = &query
		} else {
			m.filter.Query = nil
		}
		return m, m.LoadItems()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = nil
		return m, m.LoadItems()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.ActiveItem()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedItemMsg{ItemID: item.ID}
		}

	case msg.String() == "/":
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()
	}

	return m, nil
}

// SetFrame swaps in the engine's current render state.
func (m *Model) SetFrame(frame engine.RenderState) {
	m.frame = frame
}

// SearchMode reports whether the search input currently has focus.
func (m Model) SearchMode() bool {
	return m.searchMode
}

// Items returns the currently loaded triage queue.
func (m Model) Items() []model.Item {
	return m.items
}

// ActiveItem returns the item at the engine's active index.
func (m Model) ActiveItem() (model.Item, bool) {
	if m.frame.ActiveIndex < 0 || m.frame.ActiveIndex >= len(m.items) {
		return model.Item{}, false
	}
	return m.items[m.frame.ActiveIndex], true
}

// ScrollRows returns the current row scroll offset.
func (m Model) ScrollRows() int {
	return m.scrollRows
}

// SetScrollRows sets the row scroll offset, clamped to the queue.
func (m *Model) SetScrollRows(rows int) {
	m.scrollRows = rows
	m.clampScroll()
}

// clampScroll keeps the scroll offset inside the queue.
func (m *Model) clampScroll() {
	max := len(m.items) - m.visibleRows()
	if max < 0 {
		max = 0
	}
	if m.scrollRows > max {
		m.scrollRows = max
	}
	if m.scrollRows < 0 {
		m.scrollRows = 0
	}
}

// visibleRows returns how many item rows fit below the target lane.
func (m Model) visibleRows() int {
	rows := (m.height - LaneLines) / LinesPerRow
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the target lane and the visible slice of the queue.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.renderRows())
	}

	if len(m.items) == 0 {
		return m.renderEmptyState()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderLane(),
		m.renderRows(),
	)
}

// renderLane draws the target labels with proximity-scaled emphasis,
// and the marker on the line below.
func (m Model) renderLane() string {
	center := m.width / 2

	labels := make([]string, 0, len(m.frame.Targets))
	cols := make([]int, 0, len(m.frame.Targets))
	for _, t := range m.frame.Targets {
		label := theme.ProximityStyle(t.ID, t.Proximity, t.Active).
			Render(strings.ToUpper(t.ID))
		labels = append(labels, label)
		cols = append(cols, center+engineColumns(t.Offset))
	}
	laneTop := placeAt(m.width, cols, labels)

	marker := "▼"
	style := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	if m.frame.Recording {
		marker = "⏺"
		style = theme.RecordingStyle
	} else if !m.frame.Dragging {
		style = lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	}
	markerCol := center + engineColumns(m.frame.Marker.X)
	laneBottom := placeAt(m.width, []int{markerCol}, []string{style.Render(marker)})

	return laneTop + "\n" + laneBottom
}

// renderRows draws the visible item rows.
func (m Model) renderRows() string {
	var b strings.Builder

	last := m.scrollRows + m.visibleRows()
	if last > len(m.items) {
		last = len(m.items)
	}

	for i := m.scrollRows; i < last; i++ {
		item := m.items[i]
		status, ok := m.frame.Statuses[item.ID]
		active := i == m.frame.ActiveIndex

		b.WriteString(renderRow(
			item, status, ok, active, m.frame.Recording, m.width,
		))
		if i < last-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderEmptyState shows guidance text when the queue is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Query != nil {
		return style.Render("No matching mail.\nPress esc to clear the search.")
	}

	return style.Render(
		"Inbox zero.\n\n" +
			"Press c to configure an account, r to refresh.",
	)
}

// LoadItems returns a tea.Cmd that queries the store with the current
// filter.
func (m Model) LoadItems() tea.Cmd {
	filter := m.filter
	s := m.store
	return func() tea.Msg {
		items, err := s.GetItems(context.Background(), filter)
		if err != nil {
			return ItemsLoadedMsg{Items: nil}
		}
		return ItemsLoadedMsg{Items: items}
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.searchInput.Width = width - 4
	m.clampScroll()
}

// placeAt lays styled segments onto a single line at absolute columns,
// dropping any segment that would overlap the previous one or run off
// the edge.
func placeAt(width int, cols []int, segments []string) string {
	var b strings.Builder
	pos := 0
	for i, seg := range segments {
		w := lipgloss.Width(seg)
		start := cols[i] - w/2
		if start < pos {
			start = pos
		}
		if start+w > width {
			break
		}
		b.WriteString(strings.Repeat(" ", start-pos))
		b.WriteString(seg)
		pos = start + w
	}
	return b.String()
}
