// Package session coordinates the client-side state of one run of the application.
//
// A [Session] owns the unlock flag, the tab [Navigator] and three independent controllers:
//
//   - [UploadController] : validates and submits one CSV library file
//   - [ChatController] : append-only transcript and the in-flight query
//   - [StatsController] : fetch-on-mount library statistics
//
// # Event loop
//
// Controllers are not safe for concurrent use. Every mutation runs on a single goroutine
// (the bubbletea Update loop, or the CLI action). Network calls are split in two halves:
// Submit/Send/Mount/Refresh update state and return a [Call]; the caller runs the call
// off-loop and hands the [Outcome] back to Resolve on the loop.
//
// Each request carries a [Ticket]. Resolve drops outcomes whose ticket is no longer the
// current one, so a late response never overwrites newer state.
package session
