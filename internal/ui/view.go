package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/tastebud/internal/formatter"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/session"
)

// View renders the tab bar, the active tab and the footer.
func (m *Model) View() string {
	var body string
	switch m.session.Nav.Active() {
	case session.TabUpload:
		body = m.renderUpload()
	case session.TabChat:
		body = m.renderChat()
	case session.TabStats:
		body = m.renderStats()
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderTabs(), body, m.renderFooter())
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(session.Tabs))
	for _, t := range session.Tabs {
		switch {
		case t == m.session.Nav.Active():
			tabs = append(tabs, styles.activeTab.Render(t.String()))
		case !m.session.Nav.Reachable(t):
			tabs = append(tabs, styles.lockedTab.Render(t.String()+" 🔒"))
		default:
			tabs = append(tabs, styles.tab.Render(t.String()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Upload your music library"))
	b.WriteString("\n")
	b.WriteString(styles.muted.Render("A CSV file with artist and song columns"))
	b.WriteString("\n\n")
	b.WriteString(m.fileInput.View())
	b.WriteString("\n\n")

	state := m.session.Upload.State()
	switch state.Phase() {
	case session.PhasePending:
		fmt.Fprintf(&b, "%s Uploading %s...", m.spinner.View(), m.session.Upload.FileName())
	case session.PhaseSuccess:
		result, _ := state.Data()
		b.WriteString(styles.ok.Render("✓ " + result.Message))
		b.WriteString("\n")
		b.WriteString(formatter.UploadSummary(m.session.Upload.FileName(), result))
	case session.PhaseError:
		msg, _ := state.Error()
		b.WriteString(styles.err.Render("✗ " + msg))
	}
	return b.String()
}

func (m *Model) renderChat() string {
	var b strings.Builder
	b.WriteString(m.transcript.View())
	b.WriteString("\n")

	if m.session.Chat.Pending() {
		fmt.Fprintf(&b, "%s Thinking...\n", m.spinner.View())
	}

	if suggestions := m.session.Chat.Suggestions(); len(suggestions) > 0 {
		b.WriteString(styles.muted.Render("Try asking:"))
		b.WriteString("\n")
		for i, q := range suggestions {
			if i == m.suggestion {
				b.WriteString(styles.cursor.Render("› " + q))
			} else {
				b.WriteString(styles.muted.Render("  " + q))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(m.chatInput.View())
	return b.String()
}

func (m *Model) renderStats() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Library statistics"))
	b.WriteString("\n")

	state := m.session.Stats.State()
	switch state.Phase() {
	case session.PhaseIdle:
		b.WriteString(styles.muted.Render("Not loaded yet"))
		return b.String()
	case session.PhasePending:
		fmt.Fprintf(&b, "%s Loading statistics...", m.spinner.View())
		return b.String()
	case session.PhaseError:
		msg, _ := state.Error()
		b.WriteString(styles.err.Render(msg))
		b.WriteString("\n")
		b.WriteString(styles.muted.Render("Press r to retry"))
		return b.String()
	}

	stats, _ := state.Data()
	fmt.Fprintf(&b, "%s tracks\n\n", styles.ok.Render(fmt.Sprint(stats.TotalTracks)))

	m.writeBars(&b, "Genres", m.session.Stats.GenreBars())
	m.writeBars(&b, "Moods", m.session.Stats.MoodBars())

	b.WriteString(styles.assistant.Render("Top artists"))
	b.WriteString("\n")
	artists := m.session.Stats.TopArtists()
	if len(artists) == 0 {
		b.WriteString(styles.muted.Render("  none"))
		b.WriteString("\n")
	}
	for i, a := range artists {
		fmt.Fprintf(&b, "  %2d. %s %s\n", i+1, a.Artist, styles.muted.Render(fmt.Sprintf("(%d)", a.Count)))
	}
	return b.String()
}

func (m *Model) writeBars(b *strings.Builder, heading string, bars []session.Bar) {
	b.WriteString(styles.assistant.Render(heading))
	b.WriteString("\n")
	if len(bars) == 0 {
		b.WriteString(styles.muted.Render("  none"))
		b.WriteString("\n\n")
		return
	}

	width := 0
	for _, bar := range bars {
		width = max(width, lipgloss.Width(bar.Label))
	}
	for _, bar := range bars {
		label := bar.Label + strings.Repeat(" ", width-lipgloss.Width(bar.Label))
		fmt.Fprintf(b, "  %s %s %4s (%d)\n", label, m.bar.ViewAs(bar.Fraction), formatter.Percent(bar.Fraction), bar.Count)
	}
	b.WriteString("\n")
}

func (m *Model) renderFooter() string {
	var lines []string
	if m.notice != "" {
		lines = append(lines, m.notice)
	}

	var keys []key.Binding
	switch m.session.Nav.Active() {
	case session.TabUpload:
		keys = []key.Binding{m.keys.submit, m.keys.next, m.keys.forceQ}
	case session.TabChat:
		keys = []key.Binding{m.keys.submit, m.keys.up, m.keys.down, m.keys.copy, m.keys.next, m.keys.forceQ}
	case session.TabStats:
		keys = []key.Binding{m.keys.refresh, m.keys.next, m.keys.quit}
	}
	lines = append(lines, m.help.ShortHelpView(keys))
	return strings.Join(lines, "\n")
}

// renderTranscript draws every message with at most [session.TranscriptTrackLimit] tracks each.
func renderTranscript(transcript []models.Message, width int) string {
	wrap := lipgloss.NewStyle().Width(max(20, width))

	parts := make([]string, 0, len(transcript))
	for _, msg := range transcript {
		var b strings.Builder
		if msg.IsUser() {
			b.WriteString(styles.user.Render("You"))
		} else {
			b.WriteString(styles.assistant.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.Text))

		if tracks := msg.VisibleTracks(session.TranscriptTrackLimit); len(tracks) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.muted.Render("Relevant tracks:"))
			for _, t := range tracks {
				b.WriteString("\n  • ")
				b.WriteString(formatter.TrackLine(t))
			}
		}
		if len(msg.Insights) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.muted.Render("Insights:"))
			for _, in := range msg.Insights {
				b.WriteString("\n  • ")
				b.WriteString(wrap.Render(in))
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}
