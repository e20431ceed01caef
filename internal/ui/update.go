package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"chika/internal/auth"
	"chika/internal/channel"
	"chika/internal/chat"
	"chika/internal/model"
	"chika/internal/timeline"
)

func timelinePair(d model.NewMessages) timeline.Pair {
	return timeline.Pair{User: d.UserMessage, AI: d.AIMessage}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshTimeline()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case authCheckedMsg:
		if msg.authenticated {
			return m, m.loadRoomsCmd()
		}
		m.screen = screenLogin
		return m, nil

	case infoLoadedMsg:
		if msg.err != nil || len(msg.info.AvailableAIs) == 0 {
			m.providers = []string{"mock"}
		} else {
			m.providers = msg.info.AvailableAIs
		}
		if m.selected == nil {
			m.selected = make(map[string]bool, len(m.providers))
			for _, p := range m.providers {
				m.selected[p] = true
			}
		}
		return m, nil

	case loginStartedMsg:
		if msg.err != nil {
			return m, m.setNotice(noticeError, "Login failed: "+msg.err.Error())
		}
		m.attempt = msg.attempt
		m.hasAttempt = true
		m.codeInput.SetValue("")
		m.codeInput.Focus()
		return m, nil

	case codeExchangedMsg:
		switch {
		case msg.err == nil:
			m.hasAttempt = false
			m.screen = screenLoading
			cmds = append(cmds, m.setNotice(noticeOK, "Authenticated"), m.loadRoomsCmd())
			return m, tea.Batch(cmds...)
		case errors.Is(msg.err, auth.ErrExchangeRejected):
			// The attempt stays open; keep the paste field up for a retry.
			return m, m.setNotice(noticeError, "Code rejected, try again")
		default:
			return m, m.setNotice(noticeError, "Exchange failed: "+msg.err.Error())
		}

	case roomsLoadedMsg:
		if msg.err != nil {
			return m, m.setNotice(noticeError, "Could not load rooms: "+msg.err.Error())
		}
		m.screen = screenChat
		m.input.Focus()
		if room, ok := m.rooms.Active(); ok {
			cmds = append(cmds, m.startHydration(room.RoomID))
		}
		return m, tea.Batch(cmds...)

	case roomCreatedMsg:
		if msg.err != nil {
			return m, m.setNotice(noticeError, "Could not create room: "+msg.err.Error())
		}
		cmds = append(cmds,
			m.setNotice(noticeOK, "Created "+msg.room.Title),
			m.startHydration(msg.room.RoomID),
		)
		return m, tea.Batch(cmds...)

	case hydratedMsg:
		return m.handleHydrated(msg)

	case channelEventMsg:
		// Always re-arm the listener first; the stream must never stall.
		cmds = append(cmds, m.waitForEvent())
		cmd := m.handleChannelEvent(msg.event)
		return m, tea.Batch(append(cmds, cmd)...)

	case sendDoneMsg:
		if msg.err == nil {
			m.refreshTimeline()
			return m, nil
		}
		switch {
		case errors.Is(msg.err, chat.ErrEmptyMessage):
			return m, nil
		case errors.Is(msg.err, chat.ErrSendInFlight):
			return m, m.setNotice(noticeError, "Still waiting on the previous message")
		default:
			return m, m.setNotice(noticeError, "Send failed: "+msg.err.Error())
		}

	case noticeExpiredMsg:
		if m.notice.id == msg.id {
			m.notice = notice{}
		}
		return m, nil
	}

	return m, nil
}

// startHydration begins a fresh synchronization cycle for roomID: a new
// generation token, a new channel binding, and a history load. Anything
// still in flight for the previous room becomes stale by construction.
func (m *Model) startHydration(roomID string) tea.Cmd {
	m.generation = uuid.NewString()
	m.hydrating = true
	m.pending = nil
	m.degraded = false
	m.binding = m.channel.Bind(roomID)
	return m.loadHistoryCmd(roomID, m.generation)
}

func (m Model) handleHydrated(msg hydratedMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.generation {
		// Snapshot from a superseded room switch.
		return m, nil
	}
	if msg.err != nil {
		m.hydrating = false
		m.pending = nil
		return m, m.setNotice(noticeError, "Could not load history: "+msg.err.Error())
	}

	m.history.Reset(msg.roomID, msg.messages)
	m.discussions.Reset(msg.discussions)

	// Deltas that raced ahead of the snapshot apply on top of it, in
	// arrival order.
	for _, d := range m.pending {
		m.applyDelta(d)
	}
	m.pending = nil
	m.hydrating = false
	m.refreshTimeline()

	if m.refreshRequested {
		m.refreshRequested = false
		return m, m.setNotice(noticeOK, "Messages refreshed")
	}
	return m, nil
}

func (m *Model) handleChannelEvent(ev channel.Event) tea.Cmd {
	if ev.Binding.ID != m.binding.ID {
		// Delivery from a channel bound to a room we already left.
		return nil
	}

	switch ev.Kind {
	case channel.KindOpened:
		m.degraded = false
		return nil

	case channel.KindDelta:
		if ev.Delta == nil {
			return nil
		}
		if m.hydrating {
			m.pending = append(m.pending, *ev.Delta)
			return nil
		}
		m.applyDelta(*ev.Delta)
		m.refreshTimeline()
		return nil

	case channel.KindClosed, channel.KindErrored:
		// No automatic retry; the next room switch or manual refresh
		// rebinds.
		m.degraded = true
		m.chat.ClearTyping()
		return m.setNotice(noticeError, "Real-time updates disabled, press ctrl+r to reconnect")
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.channel.Close()
		return m, tea.Quit
	}

	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenChat:
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.hasAttempt {
		switch msg.Type {
		case tea.KeyEnter:
			code := m.codeInput.Value()
			m.codeInput.SetValue("")
			return m, m.submitCodeCmd(code)
		case tea.KeyEsc:
			m.auth.CancelAttempt()
			m.hasAttempt = false
			m.codeInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.codeInput, cmd = m.codeInput.Update(msg)
		return m, cmd
	}

	switch msg.Type {
	case tea.KeyUp:
		if m.providerIdx > 0 {
			m.providerIdx--
		}
	case tea.KeyDown:
		if m.providerIdx < len(m.providers)-1 {
			m.providerIdx++
		}
	case tea.KeyEnter:
		if len(m.providers) == 0 {
			return m, m.setNotice(noticeError, "No providers available")
		}
		return m, m.startLoginCmd(m.providers[m.providerIdx])
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.settings {
		return m.handleSettingsKey(msg)
	}

	switch msg.Type {
	case tea.KeyEnter:
		room, ok := m.rooms.Active()
		if !ok {
			return m, m.setNotice(noticeError, "No active room")
		}
		text := m.input.Value()
		m.input.SetValue("")
		return m, m.sendCmd(room.RoomID, text)

	case tea.KeyTab, tea.KeyShiftTab:
		return m.cycleRoom(msg.Type == tea.KeyShiftTab)

	case tea.KeyCtrlN:
		return m, m.createRoomCmd()

	case tea.KeyCtrlP:
		m.settings = true
		m.settingsIdx = 0
		return m, nil

	case tea.KeyCtrlR:
		// Manual refresh: re-hydrate and rebind, clearing degraded mode.
		if room, ok := m.rooms.Active(); ok {
			m.refreshRequested = true
			return m, m.startHydration(room.RoomID)
		}
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSettingsKey drives the provider-selection panel. The selection only
// affects rooms created from now on; existing rooms keep their own set.
func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlP, tea.KeyEnter:
		m.settings = false
	case tea.KeyUp:
		if m.settingsIdx > 0 {
			m.settingsIdx--
		}
	case tea.KeyDown:
		if m.settingsIdx < len(m.providers)-1 {
			m.settingsIdx++
		}
	case tea.KeySpace:
		if m.settingsIdx < len(m.providers) {
			p := m.providers[m.settingsIdx]
			m.selected[p] = !m.selected[p]
		}
	}
	return m, nil
}

func (m Model) cycleRoom(backwards bool) (tea.Model, tea.Cmd) {
	listed := m.rooms.Rooms()
	if len(listed) < 2 {
		return m, nil
	}
	active, _ := m.rooms.Active()

	idx := 0
	for i, r := range listed {
		if r.RoomID == active.RoomID {
			idx = i
			break
		}
	}
	if backwards {
		idx = (idx - 1 + len(listed)) % len(listed)
	} else {
		idx = (idx + 1) % len(listed)
	}

	next := listed[idx]
	if !m.rooms.Select(next.RoomID) {
		return m, nil
	}
	return m, m.startHydration(next.RoomID)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	vpWidth := width - sidebarWidth - 4
	vpHeight := height - 7
	if vpWidth < 20 {
		vpWidth = 20
	}
	if vpHeight < 5 {
		vpHeight = 5
	}
	if !m.ready {
		m.vp = viewport.New(vpWidth, vpHeight)
		m.ready = true
	} else {
		m.vp.Width = vpWidth
		m.vp.Height = vpHeight
	}
	m.input.Width = vpWidth - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(vpWidth-2),
	)
	if err == nil {
		m.renderer = r
	}
}
