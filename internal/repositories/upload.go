package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

const uploadColumns = `id, session_id, file_name, message, processed_tracks, total_tracks, created_at`

// UploadRepository stores successful ingestions. Uploads are append-only.
type UploadRepository struct {
	db *sql.DB
}

// NewUploadRepository creates a new UploadRepository with the given database connection
func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts an upload with a generated ID
func (r *UploadRepository) Create(u *models.UploadRecord) error {
	u.SetID(shared.GenerateID())
	if err := u.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := u.Result()
	query := `
		INSERT INTO uploads (` + uploadColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, u.ID(), u.SessionID(), u.FileName(), result.Message, result.ProcessedTracks, result.TotalTracks, u.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

// Get retrieves an upload by ID
func (r *UploadRepository) Get(id string) (*models.UploadRecord, error) {
	return scanUpload(r.db.QueryRow(`SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id))
}

func (r *UploadRepository) Update(u *models.UploadRecord) error {
	return fmt.Errorf("%w: upload %s", shared.ErrAppendOnly, u.ID())
}

func (r *UploadRepository) Delete(id string) error {
	return fmt.Errorf("%w: upload %s", shared.ErrAppendOnly, id)
}

// List returns uploads oldest first. Supported criteria: "session_id" (string).
func (r *UploadRepository) List(criteria map[string]any) ([]*models.UploadRecord, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads`
	args := []any{}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*models.UploadRecord
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return uploads, nil
}

func scanUpload(row rowScanner) (*models.UploadRecord, error) {
	var (
		id        string
		sessionID string
		fileName  string
		result    models.UploadResult
		createdAt time.Time
	)

	err := row.Scan(&id, &sessionID, &fileName, &result.Message, &result.ProcessedTracks, &result.TotalTracks, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: upload", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan upload: %w", err)
	}

	return models.RestoreUploadRecord(id, sessionID, fileName, result, createdAt), nil
}
