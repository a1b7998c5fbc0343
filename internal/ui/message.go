package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/tasks"
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
	MsgListLoaded MsgKind = iota
	MsgAddDone
	MsgToggleDone
	MsgUndoDone
	MsgSaveDone
	MsgProgressUpdate
	MsgChannelsUpdated
)

// listLoadedMsg is the constructor for [MsgListLoaded]
func listLoadedMsg(state tasks.ListState) Msg {
	return Msg{kind: MsgListLoaded, data: state}
}

// addDoneMsg is the constructor for [MsgAddDone]
func addDoneMsg(res models.OperationResult) Msg {
	return Msg{kind: MsgAddDone, data: res}
}

// toggleDoneMsg is the constructor for [MsgToggleDone]
func toggleDoneMsg(res models.OperationResult) Msg {
	return Msg{kind: MsgToggleDone, data: res}
}

// undoDoneMsg is the constructor for [MsgUndoDone]
func undoDoneMsg(state tasks.ListState) Msg {
	return Msg{kind: MsgUndoDone, data: state}
}

// saveDoneMsg is the constructor for [MsgSaveDone]
func saveDoneMsg(res models.OperationResult, state tasks.ListState) Msg {
	return Msg{
		kind: MsgSaveDone,
		data: struct {
			result models.OperationResult
			state  tasks.ListState
		}{res, state},
	}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// channelsUpdatedMsg is the constructor for [MsgChannelsUpdated]
func channelsUpdatedMsg() Msg {
	return Msg{kind: MsgChannelsUpdated}
}
