package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/hqv/mailsweep/internal/credential"
	"github.com/hqv/mailsweep/internal/keys"
	"github.com/hqv/mailsweep/internal/model"
	"github.com/hqv/mailsweep/internal/source/mail"
	"github.com/hqv/mailsweep/internal/store"
	"github.com/hqv/mailsweep/internal/theme"
)

// ConfigMode represents the current state of the configuration view.
type ConfigMode int

const (
	ModeList           ConfigMode = iota // List configured accounts
	ModeForm                             // IMAP account form
	ModeValidating                       // Testing connection
	ModeValidateResult                   // Show validation result
	ModeConfirmDelete                    // Confirm account deletion
)

// ConfigDoneMsg signals the config view should close and return to the
// main app.
type ConfigDoneMsg struct{}

// SourceSavedMsg signals an account was saved successfully.
type SourceSavedMsg struct {
	Source model.SourceConfig
}

// SourceDeletedMsg signals an account was deleted.
type SourceDeletedMsg struct {
	ID string
}

// ValidateResultMsg carries the result of a connection validation
// attempt.
type ValidateResultMsg struct {
	Name string
	Err  error
}

// sourcesLoadedMsg is sent when accounts have been loaded from the store.
type sourcesLoadedMsg struct {
	sources []model.SourceConfig
	err     error
}

// sourceSavedInternalMsg is sent after an account is persisted.
type sourceSavedInternalMsg struct {
	source model.SourceConfig
	err    error
}

// sourceDeletedInternalMsg is sent after an account is removed.
type sourceDeletedInternalMsg struct {
	id  string
	err error
}

// Model is the Bubble Tea model for the account configuration UI.
type Model struct {
	mode          ConfigMode
	store         store.Store
	sources       []model.SourceConfig
	selectedIdx   int
	editingSource *model.SourceConfig

	form *huh.Form

	// Form field values (huh binds to these)
	formName     string
	formHost     string
	formPort     string
	formUsername string
	formPassword string
	formMailbox  string
	formTLS      bool

	// Validation
	validating  bool
	validResult string
	validError  error
	spinner     spinner.Model

	// Delete confirmation
	confirmDelete *huh.Form
	deleteConfirm bool

	// Status message for transient feedback
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new configuration view model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeList,
		store:   s,
		keys:    k,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads accounts from the store on first render.
func (m Model) Init() tea.Cmd {
	return m.loadSources()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sourcesLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading accounts: %v", msg.err)
			return m, nil
		}
		m.sources = msg.sources
		return m, nil

	case sourceSavedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving account: %v", msg.err)
			m.mode = ModeList
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Account %q saved", msg.source.Name)
		m.mode = ModeList
		return m, tea.Batch(
			m.loadSources(),
			func() tea.Msg { return SourceSavedMsg{Source: msg.source} },
		)

	case sourceDeletedInternalMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error deleting account: %v", msg.err)
			m.mode = ModeList
			return m, nil
		}
		m.statusMsg = "Account deleted"
		m.mode = ModeList
		if m.selectedIdx >= len(m.sources)-1 && m.selectedIdx > 0 {
			m.selectedIdx--
		}
		return m, tea.Batch(
			m.loadSources(),
			func() tea.Msg { return SourceDeletedMsg{ID: msg.id} },
		)

	case ValidateResultMsg:
		m.validating = false
		m.validResult = msg.Name
		m.validError = msg.Err
		m.mode = ModeValidateResult
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to active form
	return m.updateActiveForm(msg)
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeList:
		return m.handleListKeys(msg)
	case ModeForm:
		return m.updateForm(msg)
	case ModeValidateResult:
		return m.handleValidateResultKeys(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	case ModeValidating:
		// Only allow escape during validation
		if msg.String() == "esc" {
			m.mode = ModeList
			m.validating = false
			return m, nil
		}
		return m, nil
	}
	return m, nil
}

// handleListKeys processes key events in the account list mode.
func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case msg.String() == "a":
		m.editingSource = nil
		m.resetFormFields()
		m.mode = ModeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case msg.String() == "e":
		if len(m.sources) == 0 {
			return m, nil
		}
		src := m.sources[m.selectedIdx]
		m.editingSource = &src
		m.fillFormFields(src)
		m.mode = ModeForm
		m.form = m.buildForm()
		return m, m.form.Init()

	case msg.String() == "d":
		if len(m.sources) == 0 {
			return m, nil
		}
		m.deleteConfirm = false
		m.confirmDelete = m.buildDeleteConfirmForm()
		m.mode = ModeConfirmDelete
		return m, m.confirmDelete.Init()

	case msg.String() == "enter":
		if len(m.sources) == 0 {
			return m, nil
		}
		src := m.sources[m.selectedIdx]
		m.mode = ModeValidating
		m.validating = true
		return m, tea.Batch(
			m.spinner.Tick,
			m.validateSource(src),
		)

	case key.Matches(msg, m.keys.Down):
		if len(m.sources) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.sources)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.sources) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.sources) - 1
			}
		}
		return m, nil
	}

	return m, nil
}

// handleValidateResultKeys processes key events on the validation
// result screen.
func (m Model) handleValidateResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = ModeList
		m.validResult = ""
		m.validError = nil
		return m, nil
	case "r":
		if m.validError != nil && len(m.sources) > 0 {
			src := m.sources[m.selectedIdx]
			m.mode = ModeValidating
			m.validating = true
			return m, tea.Batch(
				m.spinner.Tick,
				m.validateSource(src),
			)
		}
		return m, nil
	}
	return m, nil
}

// updateActiveForm dispatches non-key messages to the currently active
// form.
func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		return m.updateForm(msg)
	case ModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}
	return m, nil
}

// --- IMAP account form ---

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this account").
				Placeholder("Personal").
				Value(&m.formName).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("IMAP Host").
				Description("IMAP server hostname").
				Placeholder("imap.example.com").
				Value(&m.formHost).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Description("IMAP server port (e.g., 993)").
				Placeholder("993").
				Value(&m.formPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Description("Mail account username").
				Placeholder("user@example.com").
				Value(&m.formUsername).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Mail account password or app password").
				EchoMode(huh.EchoModePassword).
				Value(&m.formPassword).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Mailbox").
				Description("Mailbox to triage (defaults to INBOX)").
				Placeholder("INBOX").
				Value(&m.formMailbox),
			huh.NewConfirm().
				Title("Use TLS").
				Description("Connect with implicit TLS (No uses STARTTLS)").
				Affirmative("Yes").
				Negative("No").
				Value(&m.formTLS),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.saveAccount()
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

func (m Model) saveAccount() (Model, tea.Cmd) {
	src := m.buildSourceConfig()

	if err := credential.Set(credential.PasswordKey(src.ID), m.formPassword); err != nil {
		m.statusMsg = fmt.Sprintf("Error saving credential: %v", err)
		m.mode = ModeList
		return m, nil
	}

	m.mode = ModeValidating
	m.validating = true
	return m, tea.Batch(
		m.spinner.Tick,
		m.validateAndSave(src),
	)
}

// --- Delete confirmation ---

func (m *Model) buildDeleteConfirmForm() *huh.Form {
	sourceName := ""
	if m.selectedIdx < len(m.sources) {
		sourceName = m.sources[m.selectedIdx].Name
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete account %q?", sourceName)).
				Description(
					"This will remove the account configuration and " +
						"clear cached mail.",
				).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.deleteConfirm),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateConfirmDelete(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmDelete == nil {
		return m, nil
	}

	mdl, cmd := m.confirmDelete.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmDelete = f
	}

	if m.confirmDelete.State == huh.StateCompleted {
		if m.deleteConfirm {
			src := m.sources[m.selectedIdx]
			return m, m.deleteSource(src)
		}
		m.mode = ModeList
		return m, nil
	}
	if m.confirmDelete.State == huh.StateAborted {
		m.mode = ModeList
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the configuration UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeForm:
		return m.viewForm(m.form)
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	case ModeConfirmDelete:
		return m.viewForm(m.confirmDelete)
	default:
		return ""
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	b.WriteString(titleStyle.Render("Mail Accounts"))
	b.WriteString("\n\n")

	if len(m.sources) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		b.WriteString(emptyStyle.Render(
			"No accounts configured.\nPress 'a' to add an account.",
		))
	} else {
		for i, src := range m.sources {
			b.WriteString(m.renderSourceItem(i, src))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render(
		"a add | e edit | d delete | enter test | esc back",
	))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

func (m Model) renderSourceItem(idx int, src model.SourceConfig) string {
	enabledLabel := "enabled"
	enabledColor := theme.ColorGreen
	if !src.Enabled {
		enabledLabel = "disabled"
		enabledColor = theme.ColorGray
	}

	name := src.Name
	if name == "" {
		name = "(unnamed)"
	}

	statusLabel := lipgloss.NewStyle().
		Foreground(enabledColor).
		Render(enabledLabel)

	line := fmt.Sprintf("[@] %s  %s  %s",
		name, src.Config["username"], statusLabel,
	)

	if idx == m.selectedIdx {
		return theme.ActiveRowStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}

	content := f.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("Connection failed") + "\n\n" +
			m.validError.Error() + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("r retry | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		displayName := m.validResult
		if displayName == "" {
			displayName = "OK"
		}
		content = okStyle.Render("Connection successful") + "\n\n" +
			fmt.Sprintf("Authenticated as: %s", displayName) + "\n\n" +
			lipgloss.NewStyle().Foreground(theme.ColorGray).
				Render("enter/esc back")
	}

	return style.Render(content)
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m *Model) resetFormFields() {
	m.formName = ""
	m.formHost = ""
	m.formPort = "993"
	m.formUsername = ""
	m.formPassword = ""
	m.formMailbox = ""
	m.formTLS = true
}

func (m *Model) fillFormFields(src model.SourceConfig) {
	m.formName = src.Name
	m.formPassword = "" // Never pre-fill credentials
	m.formTLS = true

	if src.Config != nil {
		m.formHost = src.Config["imap_host"]
		m.formPort = src.Config["imap_port"]
		m.formUsername = src.Config["username"]
		m.formMailbox = src.Config["mailbox"]
		if src.Config["tls"] == "false" {
			m.formTLS = false
		}
	}
}

func (m Model) buildSourceConfig() model.SourceConfig {
	src := model.SourceConfig{
		Type:            string(model.SourceTypeIMAP),
		Name:            m.formName,
		Enabled:         true,
		PollIntervalSec: 120,
		Config: map[string]string{
			"imap_host": m.formHost,
			"imap_port": m.formPort,
			"username":  m.formUsername,
			"mailbox":   m.formMailbox,
			"tls":       fmt.Sprintf("%t", m.formTLS),
		},
	}

	if m.editingSource != nil {
		src.ID = m.editingSource.ID
	} else {
		src.ID = uuid.New().String()
	}

	return src
}

// loadSources returns a command that loads all accounts from the store.
func (m Model) loadSources() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		sources, err := s.GetSources(ctx)
		return sourcesLoadedMsg{sources: sources, err: err}
	}
}

// deleteSource returns a command that removes an account and its
// credential.
func (m Model) deleteSource(src model.SourceConfig) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		// Best-effort credential removal
		_ = credential.Delete(credential.PasswordKey(src.ID))

		err := s.DeleteSource(ctx, src.ID)
		return sourceDeletedInternalMsg{id: src.ID, err: err}
	}
}

// validateSource tests the connection for an existing account.
func (m Model) validateSource(src model.SourceConfig) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		adapter, err := createAdapter(src)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}

		name, err := adapter.ValidateConnection(ctx)
		return ValidateResultMsg{Name: name, Err: err}
	}
}

// validateAndSave validates the connection then saves the account if
// successful.
func (m Model) validateAndSave(src model.SourceConfig) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		adapter, err := createAdapter(src)
		if err != nil {
			return ValidateResultMsg{Err: err}
		}

		name, err := adapter.ValidateConnection(ctx)
		if err != nil {
			return ValidateResultMsg{Name: name, Err: err}
		}

		// Validation passed; persist the account
		if saveErr := s.UpsertSource(ctx, src); saveErr != nil {
			return ValidateResultMsg{
				Name: name,
				Err:  fmt.Errorf("connection OK but save failed: %w", saveErr),
			}
		}

		return sourceSavedInternalMsg{source: src, err: nil}
	}
}

// createAdapter builds an IMAP adapter from an account configuration,
// resolving the password from the keyring.
func createAdapter(src model.SourceConfig) (*mail.Adapter, error) {
	password, err := credential.Get(credential.PasswordKey(src.ID))
	if err != nil {
		return nil, fmt.Errorf("credential not found: %w", err)
	}

	cfg := src.Config
	if cfg == nil {
		return nil, fmt.Errorf("account %q has no connection settings", src.Name)
	}

	return mail.NewAdapter(
		cfg["imap_host"], cfg["imap_port"],
		cfg["username"], password,
		cfg["mailbox"],
		cfg["tls"] != "false",
		src.ID,
	), nil
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}
