package models

import (
	"fmt"
	"math"
	"time"
)

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// TrackCitation is a library song the backend cites as supporting evidence for an answer.
type TrackCitation struct {
	Artist          string   `json:"artist"`
	Song            string   `json:"song"`
	PrimaryGenre    string   `json:"primary_genre"`
	Mood            string   `json:"mood"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

// Match renders the similarity score as a whole percentage, e.g. "87% match".
// The second return value is false when the backend sent no score.
func (t TrackCitation) Match() (string, bool) {
	if t.SimilarityScore == nil {
		return "", false
	}
	return fmt.Sprintf("%.0f%% match", math.Round(*t.SimilarityScore*100)), true
}

// Label is the "Artist - Song" display form.
func (t TrackCitation) Label() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Song)
}

// Message is one entry of the chat transcript. Messages are values and are never edited after creation.
type Message struct {
	Role      Role            `json:"role"`
	Text      string          `json:"text"`
	Tracks    []TrackCitation `json:"tracks,omitempty"`   // assistant only
	Insights  []string        `json:"insights,omitempty"` // assistant only
	CreatedAt time.Time       `json:"created_at"`
}

// UserMessage builds a transcript entry for a query typed by the user.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text, CreatedAt: time.Now()}
}

// AssistantMessage builds a transcript entry for a backend answer. Nil slices stay nil.
func AssistantMessage(text string, tracks []TrackCitation, insights []string) Message {
	return Message{
		Role:      RoleAssistant,
		Text:      text,
		Tracks:    append([]TrackCitation(nil), tracks...),
		Insights:  append([]string(nil), insights...),
		CreatedAt: time.Now(),
	}
}

// VisibleTracks returns at most limit citations for display. The message keeps the full list.
func (m Message) VisibleTracks(limit int) []TrackCitation {
	if limit < 0 || len(m.Tracks) <= limit {
		return m.Tracks
	}
	return m.Tracks[:limit]
}

// IsUser reports whether the user authored the message.
func (m Message) IsUser() bool { return m.Role == RoleUser }

// ChatQuery is the JSON body posted to /chat.
type ChatQuery struct {
	Query string `json:"query"`
}

// ChatReply is the JSON body returned by /chat.
type ChatReply struct {
	Response       string          `json:"response"`
	RelevantTracks []TrackCitation `json:"relevant_tracks"`
	Insights       []string        `json:"insights"`
}

// Message converts the reply into an assistant transcript entry.
func (r ChatReply) Message() Message {
	return AssistantMessage(r.Response, r.RelevantTracks, r.Insights)
}
