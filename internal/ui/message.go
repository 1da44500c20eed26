package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviex/internal/feed"
	"github.com/desertthunder/moviex/internal/models"
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
	MsgFeedUpdated MsgKind = iota
	MsgDetailUpdated
	MsgProfileLoaded
	MsgLoginDone
	MsgSignUpDone
	MsgLogoutDone
	MsgBrowserOpened
)

type authResult struct {
	profile *models.Profile
	err     error
}

// feedUpdatedMsg is the constructor for [MsgFeedUpdated]
func feedUpdatedMsg(s feed.Snapshot) Msg {
	return Msg{kind: MsgFeedUpdated, data: s}
}

// detailUpdatedMsg is the constructor for [MsgDetailUpdated]
func detailUpdatedMsg(s feed.DetailSnapshot) Msg {
	return Msg{kind: MsgDetailUpdated, data: s}
}

// profileLoadedMsg is the constructor for [MsgProfileLoaded]
func profileLoadedMsg(p *models.Profile, err error) Msg {
	return Msg{kind: MsgProfileLoaded, data: authResult{p, err}}
}

// loginDoneMsg is the constructor for [MsgLoginDone]
func loginDoneMsg(p *models.Profile, err error) Msg {
	return Msg{kind: MsgLoginDone, data: authResult{p, err}}
}

// signUpDoneMsg is the constructor for [MsgSignUpDone]
func signUpDoneMsg(p *models.Profile, err error) Msg {
	return Msg{kind: MsgSignUpDone, data: authResult{p, err}}
}

// logoutDoneMsg is the constructor for [MsgLogoutDone]
func logoutDoneMsg(err error) Msg {
	return Msg{kind: MsgLogoutDone, data: err}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
