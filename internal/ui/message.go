package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/wouldwatch/internal/auth"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// view is the id of the view instance that issued the command; 0 marks app-wide messages.
// A message for a view that is no longer mounted is dropped.
type Msg struct {
	kind MsgKind
	view uint64
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAuthChanged MsgKind = iota
	MsgMounted
	MsgSignInDone
	MsgOAuthStarted
	MsgSignedOut
	MsgRoomsLoaded
	MsgRoomCreated
	MsgSessionCreated
	MsgSessionLoaded
	MsgCopied
	MsgCopyExpired
	MsgSearchDone
	MsgVoteDone
	MsgFlashExpired
	MsgMatchesLoaded
	MsgProfileLoaded
	MsgProfileSaved
	MsgSavedExpired
	MsgUsersLoaded
	MsgFollowDone
)

// result carries the outcome of a backend call.
type result[T any] struct {
	value T
	err   error
}

// resultMsg is the constructor for every request/response message.
func resultMsg[T any](kind MsgKind, view uint64, value T, err error) Msg {
	return Msg{kind: kind, view: view, data: result[T]{value, err}}
}

// authChangedMsg is the constructor for [MsgAuthChanged]
func authChangedMsg(event auth.Event, user *auth.User) Msg {
	return Msg{
		kind: MsgAuthChanged,
		data: struct {
			event auth.Event
			user  *auth.User
		}{event, user},
	}
}

// mountedMsg is the constructor for [MsgMounted]
func mountedMsg(err error) Msg {
	return Msg{kind: MsgMounted, data: err}
}

// timerMsg is the constructor for expiry messages keyed by an occurrence id.
func timerMsg(kind MsgKind, view, id uint64) Msg {
	return Msg{kind: kind, view: view, data: id}
}

func payload[T any](msg Msg) (T, error) {
	r, _ := msg.data.(result[T])
	return r.value, r.err
}
