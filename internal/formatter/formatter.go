// package formatter renders transcripts, statistics and uploads as Markdown, plain text and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension is the file extension used for the format.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatText:
		return ".txt"
	default:
		return "." + string(f)
	}
}

const (
	barFull  = "█"
	barEmpty = "░"
)

// Bar draws a horizontal bar width cells wide, filled to fraction.
func Bar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	fraction = max(0, min(1, fraction))
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, width-filled)
}

// Percent renders a fraction as a whole percentage.
func Percent(fraction float64) string {
	return fmt.Sprintf("%.0f%%", fraction*100)
}

// TrackLine is the one-line form of a citation, e.g. "Radiohead - Paranoid Android (alternative rock, melancholic) 87% match".
func TrackLine(t models.TrackCitation) string {
	var b strings.Builder
	b.WriteString(t.Label())

	var tags []string
	if t.PrimaryGenre != "" {
		tags = append(tags, t.PrimaryGenre)
	}
	if t.Mood != "" {
		tags = append(tags, t.Mood)
	}
	if len(tags) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(tags, ", "))
	}
	if match, ok := t.Match(); ok {
		fmt.Fprintf(&b, " %s", match)
	}
	return b.String()
}

// AnswerText renders one assistant message for the terminal, showing at most trackLimit citations.
func AnswerText(m models.Message, trackLimit int) string {
	var b strings.Builder
	b.WriteString(m.Text)
	b.WriteString("\n")

	if tracks := m.VisibleTracks(trackLimit); len(tracks) > 0 {
		b.WriteString("\nRelevant tracks:\n")
		for _, t := range tracks {
			fmt.Fprintf(&b, "  • %s\n", TrackLine(t))
		}
		if hidden := len(m.Tracks) - len(tracks); hidden > 0 {
			fmt.Fprintf(&b, "  … and %d more\n", hidden)
		}
	}

	if len(m.Insights) > 0 {
		b.WriteString("\nInsights:\n")
		for _, insight := range m.Insights {
			fmt.Fprintf(&b, "  • %s\n", insight)
		}
	}
	return b.String()
}

// TranscriptToMarkdown renders a transcript as a Markdown document.
func TranscriptToMarkdown(title string, transcript []models.Message, trackLimit int) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	for _, m := range transcript {
		if m.IsUser() {
			fmt.Fprintf(&buf, "**You**: %s\n\n", m.Text)
			continue
		}

		fmt.Fprintf(&buf, "**Assistant**: %s\n\n", m.Text)
		if tracks := m.VisibleTracks(trackLimit); len(tracks) > 0 {
			buf.WriteString("Relevant tracks:\n\n")
			for _, t := range tracks {
				fmt.Fprintf(&buf, "- %s\n", TrackLine(t))
			}
			buf.WriteString("\n")
		}
		if len(m.Insights) > 0 {
			buf.WriteString("Insights:\n\n")
			for _, insight := range m.Insights {
				fmt.Fprintf(&buf, "- %s\n", insight)
			}
			buf.WriteString("\n")
		}
	}
	return buf.Bytes()
}

// TranscriptToText renders a transcript as plain text.
func TranscriptToText(transcript []models.Message, trackLimit int) []byte {
	var buf bytes.Buffer
	for i, m := range transcript {
		if i > 0 {
			buf.WriteString("\n")
		}
		if m.IsUser() {
			fmt.Fprintf(&buf, "You: %s\n", m.Text)
			continue
		}
		buf.WriteString("Assistant: ")
		buf.WriteString(AnswerText(m, trackLimit))
	}
	return buf.Bytes()
}

// StatsToText renders library statistics with bars barWidth cells wide.
func StatsToText(stats models.LibraryStats, barWidth, artistLimit int) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Total tracks: %d\n", stats.TotalTracks)
	writeDistribution(&buf, "Genres", stats.Genres, stats.TotalTracks, barWidth)
	writeDistribution(&buf, "Moods", stats.Moods, stats.TotalTracks, barWidth)

	artists := stats.TopArtistsN(artistLimit)
	if len(artists) > 0 {
		buf.WriteString("\nTop artists\n")
		for i, a := range artists {
			fmt.Fprintf(&buf, "  %2d. %s (%d)\n", i+1, a.Artist, a.Count)
		}
	}
	return buf.Bytes()
}

func writeDistribution(buf *bytes.Buffer, heading string, d models.Distribution, total, barWidth int) {
	if len(d) == 0 {
		return
	}

	labelWidth := 0
	for _, b := range d {
		labelWidth = max(labelWidth, len([]rune(b.Label)))
	}

	fmt.Fprintf(buf, "\n%s\n", heading)
	for _, b := range d {
		fraction := models.Fraction(b.Count, total)
		fmt.Fprintf(buf, "  %-*s %s %4s (%d)\n", labelWidth, b.Label, Bar(fraction, barWidth), Percent(fraction), b.Count)
	}
}

// StatsToCSV converts statistics to CSV with columns: Kind, Label, Count, Share
func StatsToCSV(stats models.LibraryStats) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Kind", "Label", "Count", "Share"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	write := func(kind, label string, count int) error {
		share := strconv.FormatFloat(stats.Share(count), 'f', 4, 64)
		if err := writer.Write([]string{kind, label, strconv.Itoa(count), share}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
		return nil
	}

	for _, b := range stats.Genres {
		if err := write("genre", b.Label, b.Count); err != nil {
			return nil, err
		}
	}
	for _, b := range stats.Moods {
		if err := write("mood", b.Label, b.Count); err != nil {
			return nil, err
		}
	}
	for _, a := range stats.TopArtists {
		if err := write("artist", a.Artist, a.Count); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// UploadSummary is the line printed after a successful upload.
func UploadSummary(fileName string, result models.UploadResult) string {
	if result.Message == "" {
		return fmt.Sprintf("%s: %s", fileName, result.Summary())
	}
	return fmt.Sprintf("%s: %s (%s)", fileName, result.Summary(), result.Message)
}

// ExportTranscript renders a transcript in the given format.
func ExportTranscript(title string, transcript []models.Message, format Format, trackLimit int) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return TranscriptToMarkdown(title, transcript, trackLimit), nil
	case FormatText:
		return TranscriptToText(transcript, trackLimit), nil
	case FormatJSON:
		return shared.MarshalJSON(transcript, true)
	default:
		return nil, fmt.Errorf("%w: transcripts cannot be exported as %s", shared.ErrInvalidFlag, format)
	}
}

// WriteTranscriptExport writes a transcript export to path.
//
// Defaults to tastebud_{shortID}{ext} in the working directory.
func WriteTranscriptExport(sessionID string, transcript []models.Message, format Format, path string, trackLimit int) (string, error) {
	if path == "" {
		path = fmt.Sprintf("tastebud_%s%s", shared.ShortID(sessionID), format.Extension())
	}

	data, err := ExportTranscript("Session "+shared.ShortID(sessionID), transcript, format, trackLimit)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
