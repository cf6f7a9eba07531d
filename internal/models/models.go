// package models defines the data model for the music taste client
package models

import "time"

// Model is a record stored in the transcript archive.
type Model interface {
	ID() string
	CreatedAt() time.Time
	// UpdatedAt equals CreatedAt for append-only records.
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the storage contract shared by the archive repositories.
//
// Append-only records reject Update and Delete with shared.ErrAppendOnly.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	// List filters by criteria keys understood by the implementation, e.g. "session_id" or "limit".
	List(criteria map[string]any) ([]T, error)
}
