package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

const (
	Greeting           = "Hi! I'm ready to analyze your music taste. Ask me anything about your music preferences, genres, or mood patterns!"
	ChatFailureMessage = "Sorry, I encountered an error processing your request. Make sure the backend is running and your music library is uploaded."
)

const (
	TranscriptTrackLimit = 3 // tracks rendered per message in the transcript view
	CompactTrackLimit    = 4 // tracks rendered in a single CLI answer
)

// SuggestedQueries are offered until the first message is appended.
var SuggestedQueries = []string{
	"What's my dominant music genre?",
	"Explain my indie rock taste",
	"What mood do I prefer in music?",
	"Show me my most energetic songs",
	"Analyze my melancholic tracks",
}

// Chatter sends a query to the backend.
type Chatter interface {
	Chat(ctx context.Context, query string) (*models.ChatReply, error)
}

// AppendFunc observes every message appended after the greeting.
type AppendFunc func(position int, m models.Message)

// ChatController owns the transcript and the query in flight.
type ChatController struct {
	backend    Chatter
	transcript []models.Message
	input      string
	state      RequestState[models.Message]
	suggested  bool // latched once the transcript grows past the greeting
	onAppend   AppendFunc
	logger     *log.Logger
}

// NewChatController creates a controller whose transcript holds only the greeting.
func NewChatController(backend Chatter, onAppend AppendFunc, logger *log.Logger) *ChatController {
	return &ChatController{
		backend:    backend,
		transcript: []models.Message{models.AssistantMessage(Greeting, nil, nil)},
		onAppend:   onAppend,
		logger:     orDiscard(logger),
	}
}

// State exposes the request lifecycle. Data is the assistant message of the last success.
func (c *ChatController) State() *RequestState[models.Message] { return &c.state }

// Pending reports whether a query is in flight.
func (c *ChatController) Pending() bool { return c.state.Pending() }

// Transcript returns a copy of the messages in order.
func (c *ChatController) Transcript() []models.Message {
	return append([]models.Message(nil), c.transcript...)
}

// Len is the number of messages, greeting included.
func (c *ChatController) Len() int { return len(c.transcript) }

// Last returns the newest message.
func (c *ChatController) Last() models.Message { return c.transcript[len(c.transcript)-1] }

// LastAnswer returns the newest assistant message that is not the greeting.
func (c *ChatController) LastAnswer() (models.Message, bool) {
	for i := len(c.transcript) - 1; i > 0; i-- {
		if !c.transcript[i].IsUser() {
			return c.transcript[i], true
		}
	}
	return models.Message{}, false
}

func (c *ChatController) Input() string     { return c.input }
func (c *ChatController) SetInput(s string) { c.input = s }

// Suggestions returns the shortcut queries while they are visible, otherwise nil.
func (c *ChatController) Suggestions() []string {
	if c.suggested || len(c.transcript) != 1 {
		return nil
	}
	return SuggestedQueries
}

// UseSuggestion copies suggestion i into the input buffer without sending it.
func (c *ChatController) UseSuggestion(i int) error {
	suggestions := c.Suggestions()
	if i < 0 || i >= len(suggestions) {
		return fmt.Errorf("%w: no suggestion %d", shared.ErrInvalidInput, i)
	}
	c.input = suggestions[i]
	return nil
}

// SendInput sends the current input buffer.
func (c *ChatController) SendInput() (Call[*models.ChatReply], error) {
	return c.Send(c.input)
}

// Send appends the trimmed query as a user message, clears the input and starts the request.
//
// Blank text and sends while a query is pending leave all state untouched.
func (c *ChatController) Send(text string) (Call[*models.ChatReply], error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}
	if c.state.Pending() {
		return nil, shared.ErrRequestInFlight
	}

	c.append(models.UserMessage(query))
	c.input = ""
	ticket := c.state.begin()
	c.logger.Debug("chat pending", "ticket", ticket)

	return func(ctx context.Context) Outcome[*models.ChatReply] {
		reply, err := c.backend.Chat(ctx, query)
		if err == nil && reply == nil {
			err = fmt.Errorf("%w: empty chat response", shared.ErrDecodeResponse)
		}
		return Outcome[*models.ChatReply]{Ticket: ticket, Value: reply, Err: err}
	}, nil
}

// Resolve appends the answer, or the fallback apology on failure, and clears pending.
// Stale outcomes are dropped and Resolve returns false.
func (c *ChatController) Resolve(o Outcome[*models.ChatReply]) bool {
	if !c.state.Current(o.Ticket) {
		c.logger.Debug("dropped stale chat outcome", "ticket", o.Ticket)
		return false
	}

	if o.Err != nil {
		c.logger.Warn("chat failed", "err", o.Err)
		c.append(models.AssistantMessage(ChatFailureMessage, nil, nil))
		c.state.fail(o.Ticket, ChatFailureMessage)
		return true
	}

	answer := o.Value.Message()
	c.append(answer)
	c.state.succeed(o.Ticket, answer)
	c.logger.Debug("chat answered", "tracks", len(answer.Tracks), "insights", len(answer.Insights))
	return true
}

// Ask sends query and waits for the answer. The returned message is the one appended,
// which is the fallback apology when the request failed.
func (c *ChatController) Ask(ctx context.Context, query string) (models.Message, error) {
	call, err := c.Send(query)
	if err != nil {
		return models.Message{}, err
	}

	o := call(ctx)
	c.Resolve(o)
	return c.Last(), o.Err
}

func (c *ChatController) append(m models.Message) {
	c.transcript = append(c.transcript, m)
	c.suggested = true
	if c.onAppend != nil {
		c.onAppend(len(c.transcript)-1, m)
	}
}
