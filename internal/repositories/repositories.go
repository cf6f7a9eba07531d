// package repositories provides persistence for the session archive.
//
// Each repository implements models.Repository[T] for one record type.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/tastebud/internal/models"
)

var (
	_ models.Repository[*models.SessionRecord] = (*SessionRepository)(nil)
	_ models.Repository[*models.MessageRecord] = (*MessageRepository)(nil)
	_ models.Repository[*models.UploadRecord]  = (*UploadRepository)(nil)
)

// queryRower is satisfied by [*sql.DB] and [*sql.Tx].
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence increments the counter kept in {table}_sequence and returns the new value.
//
// Sequence numbers order archived sessions for listings; they never appear in CLI output.
func NextSequence(q queryRower, table string) (int, error) {
	var sequence int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := q.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}
