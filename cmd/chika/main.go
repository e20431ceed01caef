package main

import (
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"chika/internal/api"
	"chika/internal/auth"
	"chika/internal/channel"
	"chika/internal/chat"
	"chika/internal/config"
	"chika/internal/rooms"
	"chika/internal/timeline"
	"chika/internal/ui"
)

func main() {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.DebugLogFile != "" {
		f, err := tea.LogToFile(cfg.DebugLogFile, "chika")
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
	}

	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout)
	manager := channel.New(cfg.WSBaseURL)

	m := ui.New(ui.Deps{
		Config:      cfg,
		Backend:     client,
		Auth:        auth.New(client),
		Rooms:       rooms.New(client),
		History:     timeline.NewStore(),
		Discussions: timeline.NewRegistry(),
		Channel:     manager,
		Chat:        chat.New(client),
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}
}
