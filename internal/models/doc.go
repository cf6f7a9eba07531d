// Package models defines the data exchanged with the analysis backend and the records kept in the transcript archive.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): values decoded from or encoded to the backend
//   - [Message] : One transcript entry, either the user's query or the assistant's answer
//   - [TrackCitation] : A library song cited as evidence for an answer
//   - [UploadResult] : Summary returned after a library CSV is ingested
//   - [LibraryStats] : Aggregate genre, mood and artist counts, with [Distribution] keeping server order
//
// 2. Persistent Entities: archive rows with identity and timestamps
//   - [SessionRecord] : One run of the client
//   - [MessageRecord] : A transcript entry at a fixed position within a session
//   - [UploadRecord] : A successful ingestion within a session
//
// All persistent entities implement the Model interface. The Repository[T] interface defines standard CRUD operations for database access.
package models
