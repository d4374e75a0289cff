package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqv/mailsweep/internal/ui/triagelist"
)

// The triage queue renders below the header bar: first the target
// lane, then the item rows. These offsets convert an absolute terminal
// line into a line within the row area.
const contentTopLines = 1

func rowsTopLines() int {
	return contentTopLines + triagelist.LaneLines
}

// enginePoint converts a terminal mouse position into engine
// coordinates. Horizontally the origin sits at the row center;
// vertically each item row spans LinesPerRow terminal lines, so one
// line covers rowHeight/LinesPerRow engine units. The view window and
// the engine scroll offset move together, which keeps this mapping
// independent of the current scroll position.
func (m Model) enginePoint(x, y int) (float64, float64) {
	ex := triagelist.EngineX(x, m.layout.Width/2)

	lineUnits := m.cfg.Engine.RowHeight / triagelist.LinesPerRow
	ey := m.cfg.Engine.TopPadding + m.cfg.Engine.HeaderOffset +
		(float64(y-rowsTopLines())+0.5)*lineUnits

	return ex, ey
}

// handleMouse feeds pointer and wheel input into the engine. Motion
// samples are forwarded unconditionally: dropping samples can cause a
// target crossing to go undetected.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	now := time.Now()

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m.scrollRows(-1)
	case tea.MouseButtonWheelDown:
		return m.scrollRows(1)
	}

	x, y := m.enginePoint(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.engine.PointerDown(x, y, now)
		}
	case tea.MouseActionMotion:
		m.engine.PointerMove(x, y, now)
	case tea.MouseActionRelease:
		m.engine.PointerUp(now)
	}

	return m, nil
}

// scrollRows moves the queue window by delta rows and feeds the
// matching engine scroll offset.
func (m Model) scrollRows(delta int) (tea.Model, tea.Cmd) {
	m.triageList.SetScrollRows(m.triageList.ScrollRows() + delta)
	offset := float64(m.triageList.ScrollRows()) * m.cfg.Engine.RowHeight
	m.engine.SetScroll(offset)
	return m, nil
}
