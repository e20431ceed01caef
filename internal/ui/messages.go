package ui

import (
	"chika/internal/api"
	"chika/internal/auth"
	"chika/internal/channel"
	"chika/internal/model"
)

type authCheckedMsg struct {
	authenticated bool
}

type infoLoadedMsg struct {
	info api.ServerInfo
	err  error
}

type loginStartedMsg struct {
	attempt auth.Attempt
	err     error
}

type codeExchangedMsg struct {
	err error
}

type roomsLoadedMsg struct {
	rooms []model.Room
	err   error
}

// hydratedMsg carries a room's history snapshot plus the generation token of
// the hydration that requested it. Snapshots from a superseded generation
// are discarded on arrival.
type hydratedMsg struct {
	generation  string
	roomID      string
	messages    []model.Message
	discussions []model.Discussion
	err         error
}

type roomCreatedMsg struct {
	room model.Room
	err  error
}

type sendDoneMsg struct {
	err error
}

type channelEventMsg struct {
	event channel.Event
}

type noticeExpiredMsg struct {
	id int
}
