package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/shared"
)

// Archive records live sessions and reads them back for the history commands.
//
// It satisfies session.Recorder. A session row is created lazily on the first record.
type Archive struct {
	sessions   *SessionRepository
	messages   *MessageRepository
	uploads    *UploadRepository
	backendURL string
	known      map[string]bool
}

// SessionSummary is one row of the history listing.
type SessionSummary struct {
	Session  *models.SessionRecord
	Messages int
	Uploads  int
}

// NewArchive creates an archive over a migrated database.
func NewArchive(db *sql.DB, backendURL string) *Archive {
	return &Archive{
		sessions:   NewSessionRepository(db),
		messages:   NewMessageRepository(db),
		uploads:    NewUploadRepository(db),
		backendURL: backendURL,
		known:      make(map[string]bool),
	}
}

// RecordMessage stores m at position within sessionID.
func (a *Archive) RecordMessage(ctx context.Context, sessionID string, position int, m models.Message) error {
	if err := a.ensureSession(ctx, sessionID); err != nil {
		return err
	}
	if err := a.messages.Create(models.NewMessageRecord(sessionID, position, m)); err != nil {
		return err
	}
	return a.sessions.Touch(sessionID, time.Now())
}

// RecordUpload stores a successful ingestion for sessionID.
func (a *Archive) RecordUpload(ctx context.Context, sessionID, fileName string, result models.UploadResult) error {
	if err := a.ensureSession(ctx, sessionID); err != nil {
		return err
	}
	if err := a.uploads.Create(models.NewUploadRecord(sessionID, fileName, result)); err != nil {
		return err
	}
	return a.sessions.Touch(sessionID, time.Now())
}

func (a *Archive) ensureSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.known[id] {
		return nil
	}

	_, err := a.sessions.Get(id)
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrNotFound):
		if err := a.sessions.Create(models.NewSessionRecord(id, a.backendURL, time.Now())); err != nil {
			return fmt.Errorf("failed to archive session: %w", err)
		}
	default:
		return err
	}

	a.known[id] = true
	return nil
}

// Sessions lists archived sessions newest first with message and upload counts.
func (a *Archive) Sessions(limit int) ([]SessionSummary, error) {
	records, err := a.sessions.List(map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(records))
	for _, s := range records {
		count, err := a.messages.Count(s.ID())
		if err != nil {
			return nil, err
		}
		uploads, err := a.uploads.List(map[string]any{"session_id": s.ID()})
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, SessionSummary{Session: s, Messages: count, Uploads: len(uploads)})
	}
	return summaries, nil
}

// Session resolves a full or abbreviated session ID.
func (a *Archive) Session(idOrPrefix string) (*models.SessionRecord, error) {
	return a.sessions.FindByPrefix(idOrPrefix)
}

// Transcript returns the archived messages of a session in order.
func (a *Archive) Transcript(sessionID string) ([]models.Message, error) {
	records, err := a.messages.List(map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, err
	}

	transcript := make([]models.Message, len(records))
	for i, r := range records {
		transcript[i] = r.Message()
	}
	return transcript, nil
}

// Uploads returns the archived uploads of a session.
func (a *Archive) Uploads(sessionID string) ([]*models.UploadRecord, error) {
	return a.uploads.List(map[string]any{"session_id": sessionID})
}

// Forget soft-deletes a session so it no longer appears in listings.
func (a *Archive) Forget(sessionID string) error {
	delete(a.known, sessionID)
	return a.sessions.Delete(sessionID)
}
