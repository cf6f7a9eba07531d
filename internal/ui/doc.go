// Package ui implements the interactive terminal client using bubbletea's Elm architecture.
//
// The TUI has three tabs backed by one [session.Session]:
//  1. Upload : enter the path of a library CSV and submit it
//  2. Chat : transcript viewport, suggested queries and the query input
//  3. Stats : genre and mood bars plus the top artists, fetched on first visit
//
// Chat and Stats stay locked until an upload succeeds; the successful upload switches to Chat.
//
// Network calls run inside tea.Cmd functions and come back as [Msg] values, so every
// state change happens in Update. Keyboard help is rendered with charmbracelet/bubbles/help.
package ui
