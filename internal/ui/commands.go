package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"chika/internal/model"
)

func (m Model) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
}

func (m Model) checkAuthCmd() tea.Cmd {
	a := m.auth
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()
		return authCheckedMsg{authenticated: a.CheckAuth(ctx)}
	}
}

func (m Model) loadInfoCmd() tea.Cmd {
	b := m.backend
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()
		info, err := b.Info(ctx)
		return infoLoadedMsg{info: info, err: err}
	}
}

func (m Model) startLoginCmd(provider string) tea.Cmd {
	a := m.auth
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()
		attempt, err := a.StartLogin(ctx, provider)
		return loginStartedMsg{attempt: attempt, err: err}
	}
}

func (m Model) submitCodeCmd(code string) tea.Cmd {
	a := m.auth
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()
		return codeExchangedMsg{err: a.SubmitCode(ctx, code)}
	}
}

func (m Model) loadRoomsCmd() tea.Cmd {
	dir := m.rooms
	defaults := m.selectedAIs()
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()
		listed, err := dir.Load(ctx, defaults)
		return roomsLoadedMsg{rooms: listed, err: err}
	}
}

func (m Model) createRoomCmd() tea.Cmd {
	dir := m.rooms
	ais := m.selectedAIs()
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()
		room, err := dir.Create(ctx, "", ais)
		return roomCreatedMsg{room: room, err: err}
	}
}

// selectedAIs returns the providers picked in the settings panel, in catalog
// order. An empty selection falls back to the full catalog so a room is
// never created without any AI.
func (m Model) selectedAIs() []string {
	var out []string
	for _, p := range m.providers {
		if m.selected[p] {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return m.providers
	}
	return out
}

// loadHistoryCmd fetches the message log and discussion snapshot for one
// room and tags the result with the hydration generation that asked for it.
func (m Model) loadHistoryCmd(roomID, generation string) tea.Cmd {
	b := m.backend
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()

		msgs, err := b.Messages(ctx, roomID)
		if err != nil {
			return hydratedMsg{generation: generation, roomID: roomID, err: err}
		}
		ds, err := b.Discussions(ctx, roomID)
		if err != nil {
			return hydratedMsg{generation: generation, roomID: roomID, err: err}
		}
		return hydratedMsg{generation: generation, roomID: roomID, messages: msgs, discussions: ds}
	}
}

func (m Model) sendCmd(roomID, text string) tea.Cmd {
	s := m.chat
	timeout := m.ctx
	return func() tea.Msg {
		ctx, cancel := timeout()
		defer cancel()
		return sendDoneMsg{err: s.Send(ctx, roomID, text)}
	}
}

// waitForEvent blocks on the channel manager's event stream. It is
// re-issued after every delivery so exactly one reader exists at a time.
func (m Model) waitForEvent() tea.Cmd {
	events := m.channel.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return channelEventMsg{event: ev}
	}
}

func (m *Model) applyDelta(d model.NewMessages) {
	if d.Discussion != nil {
		m.discussions.Upsert(*d.Discussion)
	}
	m.history.Append(timelinePair(d))
	m.chat.ClearTyping()
}
