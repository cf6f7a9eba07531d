package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

const messageColumns = `id, session_id, position, role, body, tracks, insights, created_at`

// MessageRepository stores transcript entries. Messages are append-only: Update and Delete always fail.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new MessageRepository with the given database connection
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message. Track citations and insights are stored as JSON arrays.
func (r *MessageRepository) Create(m *models.MessageRecord) error {
	m.SetID(shared.GenerateID())
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	msg := m.Message()
	tracks, err := json.Marshal(nonNil(msg.Tracks))
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}
	insights, err := json.Marshal(nonNil(msg.Insights))
	if err != nil {
		return fmt.Errorf("failed to encode insights: %w", err)
	}

	query := `
		INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, m.ID(), m.SessionID(), m.Position(), string(msg.Role), msg.Text, string(tracks), string(insights), m.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Get retrieves a message by ID
func (r *MessageRepository) Get(id string) (*models.MessageRecord, error) {
	return scanMessage(r.db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id))
}

func (r *MessageRepository) Update(m *models.MessageRecord) error {
	return fmt.Errorf("%w: message %s", shared.ErrAppendOnly, m.ID())
}

func (r *MessageRepository) Delete(id string) error {
	return fmt.Errorf("%w: message %s", shared.ErrAppendOnly, id)
}

// List returns messages in transcript order. Supported criteria: "session_id" (string).
func (r *MessageRepository) List(criteria map[string]any) ([]*models.MessageRecord, error) {
	query := `SELECT ` + messageColumns + ` FROM messages`
	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}

	query += " ORDER BY session_id, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.MessageRecord
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return messages, nil
}

// Count returns the number of messages stored for a session.
func (r *MessageRepository) Count(sessionID string) (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func scanMessage(row rowScanner) (*models.MessageRecord, error) {
	var (
		id        string
		sessionID string
		position  int
		role      string
		body      string
		tracks    string
		insights  string
		createdAt time.Time
	)

	err := row.Scan(&id, &sessionID, &position, &role, &body, &tracks, &insights, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	msg := models.Message{Role: models.Role(role), Text: body, CreatedAt: createdAt}
	if err := json.Unmarshal([]byte(tracks), &msg.Tracks); err != nil {
		return nil, fmt.Errorf("failed to decode tracks for message %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(insights), &msg.Insights); err != nil {
		return nil, fmt.Errorf("failed to decode insights for message %s: %w", id, err)
	}
	if len(msg.Tracks) == 0 {
		msg.Tracks = nil
	}
	if len(msg.Insights) == 0 {
		msg.Insights = nil
	}

	return models.RestoreMessageRecord(id, sessionID, position, msg), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
