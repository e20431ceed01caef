// Package ui is the terminal front end. All state transitions happen inside
// the bubbletea update loop, so every component mutation is serialized
// through a single dispatch point.
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"chika/internal/api"
	"chika/internal/auth"
	"chika/internal/channel"
	"chika/internal/chat"
	"chika/internal/config"
	"chika/internal/model"
	"chika/internal/rooms"
	"chika/internal/timeline"
)

// Backend is the slice of the REST client the UI loads data through. Auth,
// rooms, and chat traffic go through their own components instead.
type Backend interface {
	Info(ctx context.Context) (api.ServerInfo, error)
	Messages(ctx context.Context, roomID string) ([]model.Message, error)
	Discussions(ctx context.Context, roomID string) ([]model.Discussion, error)
}

// ChannelManager is the push-channel surface the UI drives.
type ChannelManager interface {
	Bind(roomID string) channel.Binding
	Events() <-chan channel.Event
	Close()
}

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenChat
)

// Deps are the long-lived collaborators the model orchestrates.
type Deps struct {
	Config      config.ClientConfig
	Backend     Backend
	Auth        *auth.Authenticator
	Rooms       *rooms.Directory
	History     *timeline.Store
	Discussions *timeline.Registry
	Channel     ChannelManager
	Chat        *chat.Submitter
}

// Model is the application state. It is only ever touched from Update.
type Model struct {
	cfg         config.ClientConfig
	backend     Backend
	auth        *auth.Authenticator
	rooms       *rooms.Directory
	history     *timeline.Store
	discussions *timeline.Registry
	channel     ChannelManager
	chat        *chat.Submitter

	screen    screen
	providers []string

	// Provider selection used when creating rooms, edited in the settings
	// panel.
	selected    map[string]bool
	settings    bool
	settingsIdx int

	// Login screen.
	providerIdx int
	attempt     auth.Attempt
	hasAttempt  bool
	codeInput   textinput.Model

	// Chat screen.
	input    textinput.Model
	vp       viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer
	ready    bool

	// Synchronization state for the active room. A hydration generation is
	// minted on every room switch; stale snapshots and deltas from an older
	// generation or binding never reach the timeline.
	generation       string
	binding          channel.Binding
	hydrating        bool
	pending          []model.NewMessages
	degraded         bool
	refreshRequested bool

	notice    notice
	noticeSeq int

	width  int
	height int
}

func New(deps Deps) Model {
	code := textinput.New()
	code.Placeholder = "paste authorization code (code or code#state)"
	code.CharLimit = 2048

	input := textinput.New()
	input.Placeholder = "message (@ai to mention)"
	input.CharLimit = 4000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		cfg:         deps.Config,
		backend:     deps.Backend,
		auth:        deps.Auth,
		rooms:       deps.Rooms,
		history:     deps.History,
		discussions: deps.Discussions,
		channel:     deps.Channel,
		chat:        deps.Chat,
		screen:      screenLoading,
		codeInput:   code,
		input:       input,
		spin:        sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		m.checkAuthCmd(),
		m.loadInfoCmd(),
		m.waitForEvent(),
	)
}
