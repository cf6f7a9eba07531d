package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

const sessionColumns = `id, sequence, backend_url, started_at, updated_at, deleted_at`

// SessionRepository implements models.Repository[*models.SessionRecord].
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session with the next sequence. A record without an ID gets a generated one.
func (r *SessionRepository) Create(s *models.SessionRecord) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if s.ID() == "" {
		s.SetID(shared.GenerateID())
	}
	s.SetSequence(sequence)

	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (id, sequence, backend_url, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, s.ID(), sequence, s.BackendURL(), s.CreatedAt(), s.UpdatedAt()); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID, excluding soft-deleted sessions
func (r *SessionRepository) Get(id string) (*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? AND deleted_at IS NULL`
	return scanSession(r.db.QueryRow(query, id))
}

// FindByPrefix resolves a full or abbreviated session ID.
func (r *SessionRepository) FindByPrefix(prefix string) (*models.SessionRecord, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE substr(id, 1, length(?)) = ? AND deleted_at IS NULL ORDER BY sequence ASC LIMIT 2`
	rows, err := r.db.Query(query, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var matches []*models.SessionRecord
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: session %s", shared.ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: session id %q is ambiguous", shared.ErrInvalidArgument, prefix)
	}
}

// Update refreshes updated_at. The backend URL and start time never change.
func (r *SessionRepository) Update(s *models.SessionRecord) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	if err := r.Touch(s.ID(), now); err != nil {
		return err
	}
	s.SetUpdatedAt(now)
	return nil
}

// Touch sets updated_at for the session.
func (r *SessionRepository) Touch(id string, at time.Time) error {
	result, err := r.db.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ? AND deleted_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return expectRow(result, "session", id)
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE sessions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectRow(result, "session", id)
}

// List returns sessions newest first. Supported criteria: "backend_url" (string), "limit" (int).
func (r *SessionRepository) List(criteria map[string]any) ([]*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE deleted_at IS NULL`
	args := []any{}

	if backendURL, ok := criteria["backend_url"].(string); ok && backendURL != "" {
		query += " AND backend_url = ?"
		args = append(args, backendURL)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.SessionRecord
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

// rowScanner is satisfied by [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.SessionRecord, error) {
	var (
		id         string
		sequence   int
		backendURL string
		startedAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &backendURL, &startedAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}
	return models.RestoreSessionRecord(id, sequence, backendURL, startedAt, updatedAt, deleted), nil
}

func expectRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s not found or already deleted", shared.ErrNotFound, kind, id)
	}
	return nil
}
