// Package tasks runs multi-step backend operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.Probe] : health and stats fetched concurrently for the status command
//  2. [Engine.Replay] : a batch of questions asked one at a time through a chat controller
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default,
// so a slow or absent reader never blocks the operation.
package tasks
