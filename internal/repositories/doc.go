// Package repositories implements the SQLite session archive.
//
// Key Implementations:
//   - [SessionRepository] : archived runs with soft deletes and prefix lookup
//   - [MessageRepository] : append-only transcript entries, tracks and insights stored as JSON
//   - [UploadRepository] : append-only successful ingestions
//   - [Archive] : records live sessions and serves the history commands
//
// Sequence numbers provide stable, human-readable ordering (session #42) independent of UUIDs.
// The [NextSequence] function atomically increments per-table counters in dedicated sequence tables.
package repositories
