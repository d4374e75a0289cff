package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// ActiveRowStyle highlights the row currently receiving triage
// interaction.
var ActiveRowStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// RecordingStyle marks the parked voice-capture indicator.
var RecordingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// TriageStatusStyle returns a color-coded style for a triage record status.
func TriageStatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "pending":
		return base.Foreground(ColorYellow)
	case "confirmed":
		return base.Foreground(ColorGreen)
	case "failed":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// TargetStyle returns a color-coded style for a triage target id.
func TargetStyle(targetID string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch targetID {
	case "unsubscribe":
		return base.Foreground(ColorRed)
	case "done":
		return base.Foreground(ColorGreen)
	case "reply":
		return base.Foreground(ColorBlue)
	case "mic":
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// ProximityStyle returns a style whose emphasis scales with the
// marker's proximity to a target: dim at the proximity edge, bold and
// colored once inside the activation zone.
func ProximityStyle(targetID string, proximity float64, active bool) lipgloss.Style {
	if active {
		return TargetStyle(targetID).Reverse(true).Padding(0, 1)
	}
	if proximity <= 0 {
		return lipgloss.NewStyle().Foreground(ColorGray).Padding(0, 1)
	}
	if proximity < 0.5 {
		return lipgloss.NewStyle().Foreground(ColorSubtle).Padding(0, 1)
	}
	return TargetStyle(targetID).Padding(0, 1)
}
