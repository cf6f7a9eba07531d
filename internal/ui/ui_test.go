package ui

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/session"
	tu "github.com/desertthunder/tastebud/internal/testing"
)

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
	upKey    = tea.KeyMsg{Type: tea.KeyUp}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
	copyKey  = tea.KeyMsg{Type: tea.KeyCtrlY}
	ctrlC    = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func runeKey(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func altKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Alt: true}
}

func backend() *tu.MockBackend {
	return &tu.MockBackend{
		IngestFunc: func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
			io.Copy(io.Discard, r)
			return &models.UploadResult{Message: "Library processed", ProcessedTracks: 2, TotalTracks: 2}, nil
		},
		ChatFunc: func(ctx context.Context, query string) (*models.ChatReply, error) {
			return &models.ChatReply{
				Response:       "You mostly listen to indie rock.",
				RelevantTracks: []models.TrackCitation{{Artist: "Radiohead", Song: "Reckoner", PrimaryGenre: "indie rock", Mood: "calm"}},
				Insights:       []string{"60% indie rock"},
			}, nil
		},
		StatsFunc: func(ctx context.Context) (*models.LibraryStats, error) {
			return &models.LibraryStats{
				TotalTracks: 4,
				Genres:      models.Distribution{{Label: "indie rock", Count: 3}, {Label: "jazz", Count: 1}},
				Moods:       models.Distribution{{Label: "calm", Count: 4}},
				TopArtists:  []models.ArtistCount{{Artist: "Radiohead", Count: 3}},
			}, nil
		},
	}
}

func newTestModel(b *tu.MockBackend) (*Model, *[]string) {
	copied := &[]string{}
	m := NewModel(context.Background(), Options{
		Session: session.New(session.Options{Backend: b}),
		Copy: func(text string) error {
			*copied = append(*copied, text)
			return nil
		},
		Open: func(path string) (session.File, error) {
			if strings.HasPrefix(path, "missing") {
				return nil, os.ErrNotExist
			}
			return tu.NewNamedReader(path, "artist,song\nRadiohead,Reckoner\n"), nil
		},
	})
	return m, copied
}

// drain runs cmd and feeds every resulting application message back into the model.
func drain(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		drain(m, next)
	}
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func unlock(t *testing.T, m *Model) {
	t.Helper()
	m.fileInput.SetValue("library.csv")
	drain(m, press(m, enterKey))
	if !m.session.Unlocked() {
		t.Fatal("expected session to unlock after upload")
	}
}

func TestModel(t *testing.T) {
	t.Run("Starts On Upload Tab", func(t *testing.T) {
		m, _ := newTestModel(backend())
		if m.session.Nav.Active() != session.TabUpload {
			t.Errorf("expected upload tab, got %s", m.session.Nav.Active())
		}
		if !m.fileInput.Focused() {
			t.Error("expected file input to be focused")
		}
		if m.Init() == nil {
			t.Error("expected Init to start the cursor blink")
		}
	})

	t.Run("Locked Tabs Are Inert", func(t *testing.T) {
		m, _ := newTestModel(backend())
		for _, k := range []tea.KeyMsg{altKey("2"), altKey("3"), tabKey} {
			press(m, k)
			if m.session.Nav.Active() != session.TabUpload {
				t.Fatalf("%s: expected upload tab, got %s", k, m.session.Nav.Active())
			}
		}
		if !strings.Contains(m.notice, lockedNotice) {
			t.Errorf("expected locked notice, got %q", m.notice)
		}
	})

	t.Run("Window Resize", func(t *testing.T) {
		m, _ := newTestModel(backend())
		m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
		if m.width != 100 || m.height != 40 {
			t.Errorf("expected 100x40, got %dx%d", m.width, m.height)
		}
		if m.transcript.Width != 96 {
			t.Errorf("expected transcript width 96, got %d", m.transcript.Width)
		}
	})

	t.Run("Force Quit", func(t *testing.T) {
		m, _ := newTestModel(backend())
		cmd := press(m, ctrlC)
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestUploadTab(t *testing.T) {
	t.Run("Upload Unlocks And Switches To Chat", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		unlock(t, m)

		if m.session.Nav.Active() != session.TabChat {
			t.Errorf("expected chat tab, got %s", m.session.Nav.Active())
		}
		if !m.chatInput.Focused() || m.fileInput.Focused() {
			t.Error("expected focus to move to the chat input")
		}
		if b.Calls("Ingest") != 1 {
			t.Errorf("expected 1 ingest call, got %d", b.Calls("Ingest"))
		}
	})

	t.Run("Non CSV Is Rejected Without Network", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		m.fileInput.SetValue("notes.txt")

		if cmd := press(m, enterKey); cmd != nil {
			t.Error("expected no command for an invalid file")
		}
		if b.Calls("Ingest") != 0 {
			t.Errorf("expected no ingest call, got %d", b.Calls("Ingest"))
		}
		msg, ok := m.session.Upload.State().Error()
		if !ok || msg != session.UploadValidationMessage {
			t.Errorf("expected validation message, got %q", msg)
		}
		if !strings.Contains(m.View(), session.UploadValidationMessage) {
			t.Error("expected view to show the validation message")
		}
	})

	t.Run("Unreadable Path Without Extension Is Validated", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		m.fileInput.SetValue("missing")

		press(m, enterKey)
		if msg, _ := m.session.Upload.State().Error(); msg != session.UploadValidationMessage {
			t.Errorf("expected validation message, got %q", msg)
		}
	})

	t.Run("Missing CSV Shows Notice", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		m.fileInput.SetValue("missing.csv")

		if cmd := press(m, enterKey); cmd != nil {
			t.Error("expected no command when the file cannot be opened")
		}
		if !strings.Contains(m.notice, "Cannot open missing.csv") {
			t.Errorf("expected open notice, got %q", m.notice)
		}
		if m.session.Upload.State().Phase() != session.PhaseIdle {
			t.Errorf("expected upload to stay idle, got %s", m.session.Upload.State().Phase())
		}
	})

	t.Run("Failed Upload Stays Locked", func(t *testing.T) {
		b := backend()
		b.IngestFunc = func(ctx context.Context, fileName string, r io.Reader) (*models.UploadResult, error) {
			return nil, errors.New("connection refused")
		}
		m, _ := newTestModel(b)
		m.fileInput.SetValue("library.csv")
		drain(m, press(m, enterKey))

		if m.session.Unlocked() {
			t.Error("expected session to stay locked")
		}
		if !strings.Contains(m.View(), session.UploadFailureMessage) {
			t.Error("expected view to show the upload fallback message")
		}
	})

	t.Run("Pending Upload Shows Spinner Text", func(t *testing.T) {
		m, _ := newTestModel(backend())
		m.fileInput.SetValue("library.csv")
		cmd := press(m, enterKey)
		if cmd == nil {
			t.Fatal("expected upload command")
		}
		if !strings.Contains(m.View(), "Uploading library.csv") {
			t.Error("expected pending upload text")
		}
		if cmd := press(m, enterKey); cmd != nil {
			t.Error("expected second submit to be rejected while pending")
		}
		if !strings.Contains(m.notice, "already in progress") {
			t.Errorf("expected in-flight notice, got %q", m.notice)
		}
		drain(m, cmd)
	})
}

func TestChatTab(t *testing.T) {
	t.Run("Send Query", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		unlock(t, m)

		m.chatInput.SetValue("  What genre?  ")
		cmd := press(m, enterKey)
		if cmd == nil {
			t.Fatal("expected chat command")
		}
		if m.session.Chat.Len() != 2 || !m.session.Chat.Pending() {
			t.Fatalf("expected user message appended and pending, got len %d", m.session.Chat.Len())
		}
		if m.chatInput.Value() != "" {
			t.Errorf("expected input cleared, got %q", m.chatInput.Value())
		}
		if last := m.session.Chat.Last(); last.Text != "What genre?" {
			t.Errorf("expected trimmed user text, got %q", last.Text)
		}

		drain(m, cmd)
		if m.session.Chat.Len() != 3 {
			t.Fatalf("expected 3 messages, got %d", m.session.Chat.Len())
		}
		view := m.View()
		for _, want := range []string{"indie rock", "Radiohead - Reckoner", "60% indie rock"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q", want)
			}
		}
		if strings.Contains(view, "Try asking:") {
			t.Error("expected suggestions to be hidden after the first query")
		}
	})

	t.Run("Blank Query Is Ignored", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		unlock(t, m)

		m.chatInput.SetValue("   ")
		if cmd := press(m, enterKey); cmd != nil {
			t.Error("expected no command for a blank query")
		}
		if m.session.Chat.Len() != 1 || b.Calls("Chat") != 0 {
			t.Errorf("expected untouched transcript, got len %d and %d calls", m.session.Chat.Len(), b.Calls("Chat"))
		}
	})

	t.Run("Suggestions Fill Input", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		unlock(t, m)

		if !strings.Contains(m.View(), "Try asking:") {
			t.Error("expected suggestions on a fresh transcript")
		}

		press(m, downKey)
		if m.chatInput.Value() != session.SuggestedQueries[0] {
			t.Errorf("expected first suggestion, got %q", m.chatInput.Value())
		}
		press(m, upKey)
		want := session.SuggestedQueries[len(session.SuggestedQueries)-1]
		if m.chatInput.Value() != want {
			t.Errorf("expected wrap to last suggestion, got %q", m.chatInput.Value())
		}
		if b.Calls("Chat") != 0 || m.session.Chat.Len() != 1 {
			t.Error("selecting a suggestion must not submit")
		}
	})

	t.Run("Up From Nothing Picks Last", func(t *testing.T) {
		m, _ := newTestModel(backend())
		unlock(t, m)

		press(m, upKey)
		if m.suggestion != len(session.SuggestedQueries)-1 {
			t.Errorf("expected last suggestion index, got %d", m.suggestion)
		}
	})

	t.Run("Copy Last Answer", func(t *testing.T) {
		m, copied := newTestModel(backend())
		unlock(t, m)

		if cmd := press(m, copyKey); cmd != nil {
			t.Error("expected nothing to copy before an answer")
		}
		if !strings.Contains(m.notice, "No answer") {
			t.Errorf("expected no-answer notice, got %q", m.notice)
		}

		m.chatInput.SetValue("What genre?")
		drain(m, press(m, enterKey))
		drain(m, press(m, copyKey))

		if len(*copied) != 1 || (*copied)[0] != "You mostly listen to indie rock." {
			t.Errorf("expected answer copied, got %v", *copied)
		}
		if !strings.Contains(m.notice, "Copied") {
			t.Errorf("expected copied notice, got %q", m.notice)
		}
	})

	t.Run("Copy Failure", func(t *testing.T) {
		m, _ := newTestModel(backend())
		m.copy = func(string) error { return errors.New("no clipboard") }
		unlock(t, m)

		m.chatInput.SetValue("What genre?")
		drain(m, press(m, enterKey))
		drain(m, press(m, copyKey))
		if !strings.Contains(m.notice, "no clipboard") {
			t.Errorf("expected copy failure notice, got %q", m.notice)
		}
	})

	t.Run("Typing q Does Not Quit", func(t *testing.T) {
		m, _ := newTestModel(backend())
		unlock(t, m)

		press(m, runeKey("q"))
		if m.chatInput.Value() != "q" {
			t.Errorf("expected q typed into input, got %q", m.chatInput.Value())
		}
	})
}

func TestStatsTab(t *testing.T) {
	t.Run("Fetches Once On First Visit", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		unlock(t, m)

		drain(m, press(m, altKey("3")))
		if m.session.Nav.Active() != session.TabStats {
			t.Fatalf("expected stats tab, got %s", m.session.Nav.Active())
		}

		press(m, altKey("2"))
		drain(m, press(m, altKey("3")))
		if b.Calls("Stats") != 1 {
			t.Errorf("expected 1 stats call, got %d", b.Calls("Stats"))
		}

		view := m.View()
		for _, want := range []string{"Genres", "indie rock", "75%", "Top artists", "Radiohead"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q", want)
			}
		}
	})

	t.Run("Fetches Again After Another Upload", func(t *testing.T) {
		calls := 0
		b := backend()
		b.StatsFunc = func(ctx context.Context) (*models.LibraryStats, error) {
			calls++
			return &models.LibraryStats{
				TotalTracks: calls * 10,
				Genres:      models.Distribution{{Label: "indie rock", Count: calls}},
			}, nil
		}
		m, _ := newTestModel(b)
		unlock(t, m)

		drain(m, press(m, altKey("3")))
		if !strings.Contains(m.View(), "10") {
			t.Fatalf("expected first library stats in view")
		}

		press(m, altKey("1"))
		m.fileInput.SetValue("second.csv")
		drain(m, press(m, enterKey))
		if m.session.Nav.Active() != session.TabChat {
			t.Fatalf("expected chat tab after upload, got %s", m.session.Nav.Active())
		}

		drain(m, press(m, altKey("3")))
		if b.Calls("Stats") != 2 {
			t.Errorf("expected 2 stats calls, got %d", b.Calls("Stats"))
		}
		if stats, _ := m.session.Stats.State().Data(); stats.TotalTracks != 20 {
			t.Errorf("expected second library stats, got %+v", stats)
		}
	})

	t.Run("Bar Labels Align By Display Width", func(t *testing.T) {
		m, _ := newTestModel(backend())
		var b strings.Builder
		m.writeBars(&b, "Genres", session.Bars(models.Distribution{{Label: "música", Count: 2}, {Label: "jazz", Count: 2}}, 4))

		var rows []string
		for _, line := range strings.Split(b.String(), "\n") {
			if strings.Contains(line, "(2)") {
				rows = append(rows, line)
			}
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 bar rows, got %d", len(rows))
		}
		if lipgloss.Width(rows[0]) != lipgloss.Width(rows[1]) {
			t.Errorf("expected aligned rows, got widths %d and %d", lipgloss.Width(rows[0]), lipgloss.Width(rows[1]))
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		b := backend()
		m, _ := newTestModel(b)
		unlock(t, m)

		drain(m, press(m, altKey("3")))
		drain(m, press(m, runeKey("r")))
		if b.Calls("Stats") != 2 {
			t.Errorf("expected 2 stats calls, got %d", b.Calls("Stats"))
		}
	})

	t.Run("Failure Shows Message", func(t *testing.T) {
		b := backend()
		b.StatsFunc = func(ctx context.Context) (*models.LibraryStats, error) {
			return nil, errors.New("boom")
		}
		m, _ := newTestModel(b)
		unlock(t, m)

		drain(m, press(m, tabKey))
		if m.session.Nav.Active() != session.TabStats {
			t.Fatalf("expected stats tab, got %s", m.session.Nav.Active())
		}
		if !strings.Contains(m.View(), session.StatsFailureMessage) {
			t.Error("expected stats failure message")
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m, _ := newTestModel(backend())
		unlock(t, m)
		drain(m, press(m, altKey("3")))

		cmd := press(m, runeKey("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
