package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"chika/internal/model"
)

const sidebarWidth = 24

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeRoomStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	roomStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	aiLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))

	discussionStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("170")).
			PaddingLeft(1).
			Foreground(lipgloss.Color("245"))

	consensusStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("114"))

	errNoticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okNoticeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))

	degradedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	urlStyle = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39"))
)

func (m Model) View() string {
	switch m.screen {
	case screenLoading:
		return fmt.Sprintf("\n  %s Connecting to Chika...\n", m.spin.View())
	case screenLogin:
		return m.loginView()
	default:
		return m.chatView()
	}
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("Chika") + "  sign in\n\n")

	if m.hasAttempt {
		b.WriteString("  1. Open this URL and authorize " + m.attempt.Provider + ":\n")
		b.WriteString("     " + urlStyle.Render(m.attempt.AuthorizationURL) + "\n\n")
		b.WriteString("  2. Paste the code you were given:\n")
		b.WriteString("     " + m.codeInput.View() + "\n\n")
		b.WriteString(helpStyle.Render("  enter submit · esc cancel · ctrl+c quit") + "\n")
	} else {
		b.WriteString("  Pick a provider:\n\n")
		if len(m.providers) == 0 {
			b.WriteString("  " + m.spin.View() + " waiting for the server...\n")
		}
		for i, p := range m.providers {
			cursor := "  "
			line := roomStyle.Render(p)
			if i == m.providerIdx {
				cursor = "> "
				line = activeRoomStyle.Render(p)
			}
			b.WriteString("  " + cursor + line + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("  ↑/↓ select · enter login · ctrl+c quit") + "\n")
	}

	b.WriteString(m.noticeView())
	return b.String()
}

func (m Model) chatView() string {
	if !m.ready {
		return "\n  " + m.spin.View() + " preparing...\n"
	}

	header := titleStyle.Render("Chika")
	if m.degraded {
		header += "  " + degradedStyle.Render("⚠ real-time updates disabled")
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), "  "+m.vp.View())
	if m.settings {
		main = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), "  "+m.settingsView())
	}

	status := ""
	if m.chat.Typing() {
		who := "the AIs"
		if room, ok := m.rooms.Active(); ok && len(room.ActiveAIs) > 0 {
			who = strings.Join(room.ActiveAIs, ", ")
		}
		status = "  " + m.spin.View() + " " + who + " responding..."
	}

	help := helpStyle.Render("  enter send · tab switch room · ctrl+n new room · ctrl+p providers · ctrl+r refresh · ctrl+c quit")

	return strings.Join([]string{
		"",
		" " + header,
		main,
		status,
		"  " + m.input.View(),
		m.noticeView(),
		help,
	}, "\n")
}

func (m Model) sidebarView() string {
	active, _ := m.rooms.Active()

	var b strings.Builder
	b.WriteString("Rooms\n")
	for _, r := range m.rooms.Rooms() {
		line := r.Title
		if len(r.ActiveAIs) > 0 {
			line += fmt.Sprintf(" (%d)", len(r.ActiveAIs))
		}
		if r.RoomID == active.RoomID {
			b.WriteString(activeRoomStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(roomStyle.Render("  "+line) + "\n")
		}
	}
	return sidebarStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// settingsView is the provider-selection panel for new rooms.
func (m Model) settingsView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Providers for new rooms") + "\n\n")
	for i, p := range m.providers {
		cursor := "  "
		if i == m.settingsIdx {
			cursor = "> "
		}
		mark := "[ ]"
		if m.selected[p] {
			mark = "[x]"
		}
		b.WriteString(cursor + mark + " " + p + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("space toggle · esc done"))
	return b.String()
}

// refreshTimeline re-renders the viewport from the stores and pins it to
// the newest entry.
func (m *Model) refreshTimeline() {
	if !m.ready {
		return
	}
	m.vp.SetContent(m.timelineView())
	m.vp.GotoBottom()
}

func (m Model) timelineView() string {
	msgs := m.history.Messages()
	if len(msgs) == 0 {
		return helpStyle.Render("No messages yet. Say hello, or @mention an AI.")
	}

	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(m.messageView(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) messageView(msg model.Message) string {
	label := aiLabelStyle.Render(msg.Author)
	if msg.IsUser() {
		label = userLabelStyle.Render("you")
	}

	body := msg.Content
	if !msg.IsUser() {
		body = m.renderMarkdown(msg.Content)
	}

	out := label + "\n" + body
	if msg.DiscussionID != nil {
		if d, ok := m.discussions.Get(*msg.DiscussionID); ok {
			out += "\n" + m.discussionView(d)
		}
	}
	return out
}

func (m Model) discussionView(d model.Discussion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "private discussion · %s · %s\n", strings.Join(d.Participants, ", "), d.Status)
	for _, dm := range d.Messages {
		fmt.Fprintf(&b, "%s: %s\n", dm.AI, dm.Content)
	}
	if d.Consensus != "" {
		b.WriteString(consensusStyle.Render("consensus: "+d.Consensus) + "\n")
	}
	return discussionStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) noticeView() string {
	switch m.notice.level {
	case noticeError:
		return "  " + errNoticeStyle.Render(m.notice.text)
	case noticeOK:
		return "  " + okNoticeStyle.Render(m.notice.text)
	}
	return ""
}
