package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application. The triage
// gestures themselves are mouse-driven; these cover navigation and the
// keyboard fallbacks for each target.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Source configuration
	Configure key.Binding

	// Keyboard fallbacks for the triage targets
	Done        key.Binding
	Reply       key.Binding
	Unsubscribe key.Binding
	Record      key.Binding

	// Session reset
	Reset key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Configure: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "configure account"),
		),
		Done: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "done"),
		),
		Reply: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "reply needed"),
		),
		Unsubscribe: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unsubscribe"),
		),
		Record: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "hold to record"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reset session"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Help, k.Refresh, k.Configure, k.Reset},
		{k.Done, k.Reply, k.Unsubscribe, k.Record},
	}
}
