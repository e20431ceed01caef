package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type noticeLevel int

const (
	noticeNone noticeLevel = iota
	noticeOK
	noticeError
)

// notice is the transient status line. Each one carries a sequence id so an
// expiry tick from an earlier notice cannot dismiss a later one.
type notice struct {
	id    int
	level noticeLevel
	text  string
}

func (m *Model) setNotice(level noticeLevel, text string) tea.Cmd {
	m.noticeSeq++
	m.notice = notice{id: m.noticeSeq, level: level, text: text}

	ttl := m.cfg.OKNoticeTTL
	if level == noticeError {
		ttl = m.cfg.ErrorNoticeTTL
	}
	if ttl <= 0 {
		return nil
	}

	id := m.noticeSeq
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}
