package triagelist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/theme"
)

// LinesPerRow is the number of terminal lines each item row occupies.
// The mouse-to-row mapping in the app layer depends on this being
// constant for every row.
const LinesPerRow = 2

// LaneLines is the number of terminal lines the target lane occupies
// above the rows: one for the target labels, one for the marker.
const LaneLines = 2

// statusBadge renders the triage status marker for a row, or an empty
// placeholder when the item has no record yet.
func statusBadge(status model.TriageStatus, ok bool) string {
	if !ok {
		return "   "
	}
	switch status {
	case model.TriagePending:
		return theme.TriageStatusStyle("pending").Render("…")
	case model.TriageConfirmed:
		return theme.TriageStatusStyle("confirmed").Render("✓")
	case model.TriageFailed:
		return theme.TriageStatusStyle("failed").Render("✗")
	default:
		return "   "
	}
}

// renderRow draws one item as two lines: sender and subject on the
// first, snippet and age on the second.
func renderRow(item model.Item, status model.TriageStatus, hasStatus, active, recording bool, width int) string {
	badge := statusBadge(status, hasStatus)

	sender := item.SenderName
	if sender == "" {
		sender = item.Sender
	}

	listBadge := ""
	if item.IsBulkSender {
		listBadge = lipgloss.NewStyle().
			Foreground(theme.ColorOrange).
			Render(" ⊞")
	}

	recBadge := ""
	if active && recording {
		recBadge = theme.RecordingStyle.Render(" ⏺ REC")
	}

	first := fmt.Sprintf("%s %s%s — %s%s",
		badge,
		lipgloss.NewStyle().Bold(true).Render(truncate(sender, 28)),
		listBadge,
		truncate(item.Subject, width-40),
		recBadge,
	)

	second := fmt.Sprintf("    %s  %s",
		lipgloss.NewStyle().Foreground(theme.ColorGray).
			Render(truncate(item.Snippet, width-16)),
		lipgloss.NewStyle().Foreground(theme.ColorSubtle).
			Render(relativeTime(item.ReceivedAt)),
	)

	if active {
		first = theme.ActiveRowStyle.Render(first)
		second = theme.ActiveRowStyle.Render(second)
	} else {
		first = theme.ListItemStyle.Render(first)
		second = theme.ListItemStyle.Render(second)
	}

	return first + "\n" + second
}

// truncate shortens s to at most max visible runes, appending an
// ellipsis when it cuts.
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-1]) + "…"
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
