package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hqv/mailsweep/internal/theme"
)

// Re-export theme styles so existing code that imports from app still works.
// New code should import from the theme package directly.
var (
	HeaderStyle      = theme.HeaderStyle
	StatusBarStyle   = theme.StatusBarStyle
	DetailPanelStyle = theme.DetailPanelStyle
	ListItemStyle    = theme.ListItemStyle
	ActiveRowStyle   = theme.ActiveRowStyle
	HelpStyle        = theme.HelpStyle
	BorderStyle      = theme.BorderStyle
	RecordingStyle   = theme.RecordingStyle
)

// TriageStatusStyle delegates to theme.TriageStatusStyle.
func TriageStatusStyle(status string) lipgloss.Style {
	return theme.TriageStatusStyle(status)
}

// TargetStyle delegates to theme.TargetStyle.
func TargetStyle(targetID string) lipgloss.Style {
	return theme.TargetStyle(targetID)
}
