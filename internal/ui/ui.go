package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/session"
	"github.com/desertthunder/tastebud/internal/shared"
)

const lockedNotice = "Upload a library to unlock Chat and Stats"

// Options configures [NewModel].
type Options struct {
	Session *session.Session
	Logger  *log.Logger

	// Copy defaults to the system clipboard.
	Copy func(text string) error
	// Open defaults to [os.Open].
	Open func(path string) (session.File, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	session    *session.Session
	logger     *log.Logger
	copy       func(string) error
	open       func(string) (session.File, error)
	width      int
	height     int
	fileInput  textinput.Model
	chatInput  textinput.Model
	transcript viewport.Model
	spinner    spinner.Model
	bar        progress.Model
	help       help.Model
	keys       keyMap
	suggestion int // highlighted suggested query, -1 when none
	notice     string
}

// NewModel creates a new TUI model over a fresh session.
func NewModel(ctx context.Context, opts Options) *Model {
	fi := textinput.New()
	fi.Placeholder = "path/to/library.csv"
	fi.Prompt = "File: "
	fi.CharLimit = 4096
	fi.Width = 60
	fi.Focus()

	ci := textinput.New()
	ci.Placeholder = "Ask about your music taste..."
	ci.Prompt = "› "
	ci.CharLimit = 1000
	ci.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.assistant

	m := &Model{
		ctx:        ctx,
		session:    opts.Session,
		logger:     opts.Logger,
		copy:       opts.Copy,
		open:       opts.Open,
		fileInput:  fi,
		chatInput:  ci,
		transcript: viewport.New(80, 12),
		spinner:    sp,
		bar:        progress.New(progress.WithSolidFill(colorAccent), progress.WithoutPercentage(), progress.WithWidth(30)),
		help:       help.New(),
		keys:       newKeyMap(),
		suggestion: -1,
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	if m.copy == nil {
		m.copy = clipboard.WriteAll
	}
	if m.open == nil {
		m.open = func(path string) (session.File, error) { return os.Open(path) }
	}
	m.refreshTranscript()
	return m
}

// Init starts the cursor blinking. Nothing is fetched until a tab needs it.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgUploadDone:
		before := m.session.Nav.Active()
		m.session.Upload.Resolve(msg.data.(session.Outcome[models.UploadResult]))
		if m.session.Nav.Active() != before {
			m.notice = ""
			m.focusActive()
		}

	case MsgChatDone:
		if m.session.Chat.Resolve(msg.data.(session.Outcome[*models.ChatReply])) {
			m.refreshTranscript()
		}

	case MsgStatsDone:
		m.session.Stats.Resolve(msg.data.(session.Outcome[models.LibraryStats]))

	case MsgCopied:
		if err, _ := msg.data.(error); err != nil {
			m.notice = styles.err.Render(fmt.Sprintf("Copy failed: %v", err))
		} else {
			m.notice = styles.ok.Render("Copied answer to clipboard")
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.forceQ):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.session.Nav.Next()
		return m, m.onTabChange()
	case key.Matches(msg, m.keys.prev):
		m.session.Nav.Prev()
		return m, m.onTabChange()
	case key.Matches(msg, m.keys.upload):
		return m, m.selectTab(session.TabUpload)
	case key.Matches(msg, m.keys.chat):
		return m, m.selectTab(session.TabChat)
	case key.Matches(msg, m.keys.stats):
		return m, m.selectTab(session.TabStats)
	}

	switch m.session.Nav.Active() {
	case session.TabUpload:
		if key.Matches(msg, m.keys.submit) {
			return m, m.submitUpload()
		}
	case session.TabChat:
		switch {
		case key.Matches(msg, m.keys.submit):
			return m, m.sendQuery()
		case key.Matches(msg, m.keys.up):
			m.moveSuggestion(-1)
			return m, nil
		case key.Matches(msg, m.keys.down):
			m.moveSuggestion(1)
			return m, nil
		case key.Matches(msg, m.keys.copy):
			return m, m.copyAnswer()
		case key.Matches(msg, m.keys.pageUp, m.keys.pageDown):
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}
	case session.TabStats:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			return m, m.refreshStats()
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.session.Nav.Active() {
	case session.TabUpload:
		m.fileInput, cmd = m.fileInput.Update(msg)
	case session.TabChat:
		m.chatInput, cmd = m.chatInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectTab(t session.Tab) tea.Cmd {
	if !m.session.Nav.Select(t) {
		m.notice = styles.warn.Render(lockedNotice)
		return nil
	}
	return m.onTabChange()
}

// onTabChange moves focus to the active tab's input and mounts stats when they are not loaded for the current library.
func (m *Model) onTabChange() tea.Cmd {
	active := m.session.Nav.Active()
	if !m.session.Unlocked() && active == session.TabUpload {
		m.notice = styles.warn.Render(lockedNotice)
	} else {
		m.notice = ""
	}
	m.logger.Debug("tab selected", "tab", active)
	m.focusActive()

	if active == session.TabStats {
		if call := m.session.Stats.Mount(); call != nil {
			return tea.Batch(m.spinner.Tick, m.runStats(call))
		}
	}
	return nil
}

func (m *Model) focusActive() {
	m.fileInput.Blur()
	m.chatInput.Blur()
	switch m.session.Nav.Active() {
	case session.TabUpload:
		m.fileInput.Focus()
	case session.TabChat:
		m.chatInput.Focus()
	}
}

// namedFile stands in for a path that could not be opened so the name can still be validated.
type namedFile string

func (f namedFile) Name() string             { return string(f) }
func (f namedFile) Read([]byte) (int, error) { return 0, io.EOF }

func (m *Model) submitUpload() tea.Cmd {
	path := strings.TrimSpace(m.fileInput.Value())

	file, err := m.open(path)
	if err != nil {
		if strings.HasSuffix(path, ".csv") {
			m.notice = styles.err.Render(fmt.Sprintf("Cannot open %s: %v", path, err))
			return nil
		}
		file = namedFile(path)
	}

	call, err := m.session.Upload.Submit(file)
	if err != nil {
		closeFile(file)
		if errors.Is(err, shared.ErrRequestInFlight) {
			m.notice = styles.warn.Render("An upload is already in progress")
		}
		return nil
	}

	m.notice = ""
	ctx := m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		o := call(ctx)
		closeFile(file)
		return uploadDoneMsg(o)
	})
}

func closeFile(f session.File) {
	if c, ok := f.(io.Closer); ok {
		c.Close()
	}
}

func (m *Model) sendQuery() tea.Cmd {
	m.session.Chat.SetInput(m.chatInput.Value())
	call, err := m.session.Chat.SendInput()
	if err != nil {
		return nil
	}

	m.chatInput.Reset()
	m.suggestion = -1
	m.refreshTranscript()

	ctx := m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return chatDoneMsg(call(ctx))
	})
}

func (m *Model) moveSuggestion(delta int) {
	suggestions := m.session.Chat.Suggestions()
	if len(suggestions) == 0 {
		return
	}

	next := m.suggestion + delta
	if m.suggestion < 0 && delta < 0 {
		next = len(suggestions) - 1
	}
	next = (next%len(suggestions) + len(suggestions)) % len(suggestions)

	if err := m.session.Chat.UseSuggestion(next); err != nil {
		return
	}
	m.suggestion = next
	m.chatInput.SetValue(m.session.Chat.Input())
	m.chatInput.CursorEnd()
}

func (m *Model) copyAnswer() tea.Cmd {
	answer, ok := m.session.Chat.LastAnswer()
	if !ok {
		m.notice = styles.warn.Render("No answer to copy yet")
		return nil
	}
	copyFn := m.copy
	return func() tea.Msg { return copiedMsg(copyFn(answer.Text)) }
}

func (m *Model) refreshStats() tea.Cmd {
	call, err := m.session.Stats.Refresh()
	if err != nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.runStats(call))
}

func (m *Model) runStats(call session.Call[models.LibraryStats]) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return statsDoneMsg(call(ctx)) }
}

func (m *Model) busy() bool {
	return m.session.Upload.State().Pending() || m.session.Chat.Pending() || m.session.Stats.State().Pending()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	inputWidth := max(20, width-10)
	m.fileInput.Width = inputWidth
	m.chatInput.Width = inputWidth
	m.bar.Width = max(10, min(40, width/3))
	m.help.Width = width

	m.transcript.Width = max(20, width-4)
	m.transcript.Height = max(5, height-14)
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	m.transcript.SetContent(renderTranscript(m.session.Chat.Transcript(), m.transcript.Width))
	m.transcript.GotoBottom()
}
