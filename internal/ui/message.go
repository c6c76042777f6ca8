package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/progress"
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
	MsgVideosLoaded MsgKind = iota
	MsgCreatorsFetched
	MsgToggled
	MsgProgressReset
	MsgNotice
)

type videosLoaded struct {
	videos []models.Video
	err    error
}

type creatorsFetched struct {
	creators []models.Creator
	err      error
}

type toggled struct {
	id      models.VideoID
	watched bool
	err     error
}

type progressReset struct {
	count int
	err   error
}

// videosLoadedMsg is the constructor for [MsgVideosLoaded]
func videosLoadedMsg(videos []models.Video, err error) Msg {
	return Msg{kind: MsgVideosLoaded, data: videosLoaded{videos, err}}
}

// creatorsFetchedMsg is the constructor for [MsgCreatorsFetched]
func creatorsFetchedMsg(creators []models.Creator, err error) Msg {
	return Msg{kind: MsgCreatorsFetched, data: creatorsFetched{creators, err}}
}

// toggledMsg is the constructor for [MsgToggled]
func toggledMsg(id models.VideoID, watched bool, err error) Msg {
	return Msg{kind: MsgToggled, data: toggled{id, watched, err}}
}

// progressResetMsg is the constructor for [MsgProgressReset]
func progressResetMsg(count int, err error) Msg {
	return Msg{kind: MsgProgressReset, data: progressReset{count, err}}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(n progress.Notice) Msg {
	return Msg{kind: MsgNotice, data: n}
}
