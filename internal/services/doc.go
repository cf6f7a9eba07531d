// Package services implements the HTTP client for the music taste analysis backend.
//
// # Backend Interface
//
// [Backend] groups the four endpoints the client consumes:
//   - GET / : health message
//   - POST /ingest : multipart CSV upload under the "file" field
//   - POST /chat : JSON {query} answered with text, cited tracks and insights
//   - GET /stats : total tracks, genre and mood distributions, ranked artists
//
// [BackendService] implements it on top of [net/http]. Requests may be paced with a
// [rate.Limiter] and authenticated with a static bearer token through [oauth2.NewClient].
//
// # Error Handling
//
// Non-2xx responses become an [*APIError] which unwraps to [shared.ErrAPIRequest] and
// carries the FastAPI "detail" string when the body has one. Transport failures wrap
// [shared.ErrServiceUnavailable]; undecodable bodies wrap [shared.ErrDecodeResponse].
//
// The raw [BackendService.Get] and [BackendService.Post] helpers return an [APIResponse]
// for debugging commands that print whatever the server sent.
package services
