package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgUploadDone MsgKind = iota
	MsgChatDone
	MsgStatsDone
	MsgCopied
)

// uploadDoneMsg is the constructor for [MsgUploadDone]
func uploadDoneMsg(o session.Outcome[models.UploadResult]) Msg {
	return Msg{kind: MsgUploadDone, data: o}
}

// chatDoneMsg is the constructor for [MsgChatDone]
func chatDoneMsg(o session.Outcome[*models.ChatReply]) Msg {
	return Msg{kind: MsgChatDone, data: o}
}

// statsDoneMsg is the constructor for [MsgStatsDone]
func statsDoneMsg(o session.Outcome[models.LibraryStats]) Msg {
	return Msg{kind: MsgStatsDone, data: o}
}

// copiedMsg is the constructor for [MsgCopied]
func copiedMsg(err error) Msg {
	return Msg{kind: MsgCopied, data: err}
}
