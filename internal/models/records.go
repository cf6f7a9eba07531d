package models

import (
	"fmt"
	"strings"
	"time"
)

var (
	_ Model = (*SessionRecord)(nil)
	_ Model = (*MessageRecord)(nil)
	_ Model = (*UploadRecord)(nil)
)

// SessionRecord is one archived run of the client against a backend.
type SessionRecord struct {
	id         string
	sequence   int
	backendURL string
	startedAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewSessionRecord creates a session record. The ID is assigned by the repository unless id is non-empty.
func NewSessionRecord(id, backendURL string, startedAt time.Time) *SessionRecord {
	return &SessionRecord{id: id, backendURL: backendURL, startedAt: startedAt, updatedAt: startedAt}
}

// RestoreSessionRecord rebuilds a record read from storage.
func RestoreSessionRecord(id string, sequence int, backendURL string, startedAt, updatedAt time.Time, deletedAt *time.Time) *SessionRecord {
	return &SessionRecord{
		id:         id,
		sequence:   sequence,
		backendURL: backendURL,
		startedAt:  startedAt,
		updatedAt:  updatedAt,
		deletedAt:  deletedAt,
	}
}

func (s *SessionRecord) ID() string               { return s.id }
func (s *SessionRecord) Sequence() int            { return s.sequence }
func (s *SessionRecord) BackendURL() string       { return s.backendURL }
func (s *SessionRecord) CreatedAt() time.Time     { return s.startedAt }
func (s *SessionRecord) UpdatedAt() time.Time     { return s.updatedAt }
func (s *SessionRecord) DeletedAt() *time.Time    { return s.deletedAt }
func (s *SessionRecord) SetID(id string)          { s.id = id }
func (s *SessionRecord) SetSequence(seq int)      { s.sequence = seq }
func (s *SessionRecord) SetUpdatedAt(t time.Time) { s.updatedAt = t }

// Validate checks required fields.
func (s *SessionRecord) Validate() error {
	if s.id == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(s.backendURL) == "" {
		return fmt.Errorf("backend url is required")
	}
	if s.startedAt.IsZero() {
		return fmt.Errorf("start time is required")
	}
	return nil
}

// MessageRecord is a transcript entry stored at a fixed position of a session.
type MessageRecord struct {
	id        string
	sessionID string
	position  int
	message   Message
}

// NewMessageRecord wraps m for storage at position within sessionID.
func NewMessageRecord(sessionID string, position int, m Message) *MessageRecord {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return &MessageRecord{sessionID: sessionID, position: position, message: m}
}

// RestoreMessageRecord rebuilds a record read from storage.
func RestoreMessageRecord(id, sessionID string, position int, m Message) *MessageRecord {
	return &MessageRecord{id: id, sessionID: sessionID, position: position, message: m}
}

func (r *MessageRecord) ID() string           { return r.id }
func (r *MessageRecord) SessionID() string    { return r.sessionID }
func (r *MessageRecord) Position() int        { return r.position }
func (r *MessageRecord) Message() Message     { return r.message }
func (r *MessageRecord) CreatedAt() time.Time { return r.message.CreatedAt }
func (r *MessageRecord) UpdatedAt() time.Time { return r.message.CreatedAt }
func (r *MessageRecord) SetID(id string)      { r.id = id }

// Validate checks the record can be stored.
func (r *MessageRecord) Validate() error {
	if r.id == "" {
		return fmt.Errorf("message id is required")
	}
	if r.sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if r.position < 0 {
		return fmt.Errorf("position must not be negative")
	}
	if !r.message.Role.Valid() {
		return fmt.Errorf("invalid role %q", r.message.Role)
	}
	if r.message.Role == RoleUser && (len(r.message.Tracks) > 0 || len(r.message.Insights) > 0) {
		return fmt.Errorf("user messages carry no tracks or insights")
	}
	return nil
}

// UploadRecord is a successful ingestion archived for a session.
type UploadRecord struct {
	id        string
	sessionID string
	fileName  string
	result    UploadResult
	createdAt time.Time
}

// NewUploadRecord creates an upload record for sessionID.
func NewUploadRecord(sessionID, fileName string, result UploadResult) *UploadRecord {
	return &UploadRecord{sessionID: sessionID, fileName: fileName, result: result, createdAt: time.Now()}
}

// RestoreUploadRecord rebuilds a record read from storage.
func RestoreUploadRecord(id, sessionID, fileName string, result UploadResult, createdAt time.Time) *UploadRecord {
	return &UploadRecord{id: id, sessionID: sessionID, fileName: fileName, result: result, createdAt: createdAt}
}

func (u *UploadRecord) ID() string           { return u.id }
func (u *UploadRecord) SessionID() string    { return u.sessionID }
func (u *UploadRecord) FileName() string     { return u.fileName }
func (u *UploadRecord) Result() UploadResult { return u.result }
func (u *UploadRecord) CreatedAt() time.Time { return u.createdAt }
func (u *UploadRecord) UpdatedAt() time.Time { return u.createdAt }
func (u *UploadRecord) SetID(id string)      { u.id = id }

// Validate checks the record can be stored.
func (u *UploadRecord) Validate() error {
	if u.id == "" {
		return fmt.Errorf("upload id is required")
	}
	if u.sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if u.fileName == "" {
		return fmt.Errorf("file name is required")
	}
	if u.result.ProcessedTracks < 0 || u.result.TotalTracks < 0 {
		return fmt.Errorf("track counts must not be negative")
	}
	return nil
}
