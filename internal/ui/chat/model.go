// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/sentinel-syx/internal/conversation"
	"github.com/jeranaias/sentinel-syx/internal/model"
	"github.com/jeranaias/sentinel-syx/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// CredentialStore reads and persists the API keys.
type CredentialStore interface {
	Credentials() model.Credentials
	Save(ctx context.Context, creds model.Credentials) error
}

// Options wires a Model to its collaborators.
type Options struct {
	Session     *conversation.Session
	Credentials CredentialStore
	Notifier    *Notifier
	Theme       *styles.Theme
	Logger      zerolog.Logger

	// ExportDir is the default target of /export. Empty means the working
	// directory.
	ExportDir string

	// Clipboard replaces the system clipboard, for tests.
	Clipboard func(string) error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	logger zerolog.Logger

	session  *conversation.Session
	creds    CredentialStore
	notifier *Notifier

	ctx    context.Context
	cancel context.CancelFunc

	// Dimensions
	width  int
	height int

	// Components
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	markdown *markdownRenderer

	// Per-turn modes
	useInternet bool
	useDocument bool

	// pending counts turns started from this screen that have not returned.
	pending int

	// Dialogs
	confirmClear bool
	showSetup    bool
	setup        setupForm

	notice    string
	noticeErr bool

	exportDir string
	clipboard func(string) error
}

// New creates the chat model. The setup form opens immediately when no
// completion key is stored.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewNotifier()
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	ta := textarea.New()
	ta.Placeholder = "Ask anything..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.CharLimit = 4096
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		theme:     theme,
		keys:      DefaultKeyMap(),
		logger:    opts.Logger,
		session:   opts.Session,
		creds:     opts.Credentials,
		notifier:  notifier,
		ctx:       ctx,
		cancel:    cancel,
		viewport:  vp,
		input:     ta,
		spinner:   sp,
		markdown:  newMarkdownRenderer(theme),
		setup:     newSetupForm(),
		exportDir: opts.ExportDir,
		clipboard: copyFn,
	}
	if m.creds != nil && !m.creds.Credentials().HasCompletionKey() {
		m.openSetup()
	}
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts listening for session changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.notifier.Wait())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SessionChangedMsg:
		m.refresh()
		return m, m.notifier.Wait()

	case TurnDoneMsg:
		return m.handleTurnDone(msg)

	case CredentialsSavedMsg:
		if msg.Err != nil {
			m.setup.err = msg.Err.Error()
			return m, nil
		}
		m.closeSetup()
		m.setNotice("API keys saved", false)
		return m, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			m.setNotice("Export failed: "+msg.Err.Error(), true)
		} else {
			m.setNotice("Exported to "+msg.Path, false)
		}
		return m, nil

	case noticeMsg:
		m.setNotice(msg.text, msg.isErr)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.showSetup {
		var cmd tea.Cmd
		m.setup, cmd = m.setup.update(msg, m.keys)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat screen.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

const (
	headerHeight    = 1
	inputHeight     = 3
	inputAreaHeight = inputHeight + 1 // top border
	activityHeight  = 1
	statusBarHeight = 1
)

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	vpHeight := m.height - headerHeight - inputAreaHeight - activityHeight - statusBarHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = vpHeight
	m.input.SetWidth(max(m.width-2, 10))

	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	if m.showSetup {
		return m.handleSetupKey(msg)
	}
	if m.confirmClear {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Regenerate):
		if m.session.Len() == 0 {
			m.setNotice("Nothing to regenerate", true)
			return m, nil
		}
		return m.startTurn(func(ctx context.Context) (model.Message, error) {
			return m.session.RegenerateLast(ctx)
		})

	case key.Matches(msg, m.keys.Copy):
		return m.copyTranscript()

	case key.Matches(msg, m.keys.Clear):
		if m.session.Len() == 0 {
			return m, nil
		}
		m.confirmClear = true
		return m, nil

	case key.Matches(msg, m.keys.ToggleInternet):
		m.useInternet = !m.useInternet
		if m.useInternet && m.creds != nil && !m.creds.Credentials().HasSearchKey() {
			m.setNotice("Internet mode is on but no search key is set (ctrl+k)", true)
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleDocument):
		m.useDocument = !m.useDocument
		if _, ok := m.session.Document(); m.useDocument && !ok {
			m.setNotice("No document attached. Use /attach <path>", true)
		}
		return m, nil

	case key.Matches(msg, m.keys.Setup):
		if m.creds == nil {
			m.setNotice("API keys cannot be changed in this session", true)
			return m, nil
		}
		m.openSetup()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CloseSetup):
		m.closeSetup()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		creds := m.setup.credentials()
		current := m.creds.Credentials()
		if creds.CompletionKey == "" && !current.HasCompletionKey() {
			m.setup.err = "The DeepSeek API key is required"
			return m, nil
		}
		if creds.CompletionKey == "" && creds.SearchKey == "" {
			m.closeSetup()
			return m, nil
		}
		return m, m.saveCredentials(creds)
	}

	var cmd tea.Cmd
	m.setup, cmd = m.setup.update(msg, m.keys)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.confirmClear = false
		m.session.Clear()
		m.setNotice("Conversation cleared", false)
		m.refresh()
	case key.Matches(msg, m.keys.Deny):
		m.confirmClear = false
	}
	return m, nil
}

func (m Model) handleTurnDone(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	switch {
	case msg.Err == nil:
	case errors.Is(msg.Err, conversation.ErrSessionCleared),
		errors.Is(msg.Err, context.Canceled):
	case errors.Is(msg.Err, conversation.ErrNoUserTurn):
		m.setNotice("Nothing to regenerate", true)
	default:
		m.setNotice(msg.Err.Error(), true)
	}
	m.refresh()
	return m, nil
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	opts := conversation.TurnOptions{UseInternet: m.useInternet, UseDocument: m.useDocument}
	return m.startTurn(func(ctx context.Context) (model.Message, error) {
		return m.session.SubmitTurn(ctx, text, opts)
	})
}

// startTurn runs fn off the UI goroutine and starts the spinner.
func (m Model) startTurn(fn func(ctx context.Context) (model.Message, error)) (tea.Model, tea.Cmd) {
	m.pending++
	m.notice = ""
	ctx := m.ctx
	turn := func() tea.Msg {
		reply, err := fn(ctx)
		return TurnDoneMsg{Reply: reply, Err: err}
	}
	return m, tea.Batch(turn, m.spinner.Tick)
}

func (m Model) copyTranscript() (tea.Model, tea.Cmd) {
	if m.session.Len() == 0 {
		m.setNotice("Nothing to copy", true)
		return m, nil
	}
	if err := m.clipboard(m.session.ExportAsText()); err != nil {
		m.logger.Warn().Err(err).Msg("clipboard write failed")
		m.setNotice("Failed to copy: "+err.Error(), true)
		return m, nil
	}
	m.setNotice("Conversation copied to clipboard", false)
	return m, nil
}

func (m Model) saveCredentials(creds model.Credentials) tea.Cmd {
	store := m.creds
	ctx := m.ctx
	return func() tea.Msg {
		return CredentialsSavedMsg{Err: store.Save(ctx, creds)}
	}
}

func (m *Model) openSetup() {
	m.showSetup = true
	m.setup.reset()
	m.input.Blur()
}

func (m *Model) closeSetup() {
	m.showSetup = false
	m.setup.reset()
	m.input.Focus()
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

// busy reports whether a turn is running or queued.
func (m Model) busy() bool {
	return m.pending > 0 || (m.session != nil && m.session.Busy())
}

// refresh re-renders the transcript into the viewport and follows the tail.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages(m.viewport.Width))
	m.viewport.GotoBottom()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// UseInternet reports whether internet mode is on.
func (m Model) UseInternet() bool { return m.useInternet }

// UseDocument reports whether document mode is on.
func (m Model) UseDocument() bool { return m.useDocument }

// SetupOpen reports whether the API key form is showing.
func (m Model) SetupOpen() bool { return m.showSetup }

// ConfirmingClear reports whether the clear prompt is showing.
func (m Model) ConfirmingClear() bool { return m.confirmClear }

// Notice returns the status bar notice.
func (m Model) Notice() string { return m.notice }
