package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcal/internal/app"
	"github.com/nhle/mailcal/internal/logging"
	appsync "github.com/nhle/mailcal/internal/sync"
)

// runTUI starts the interactive terminal UI.
func runTUI(a *App) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	poller := appsync.New(c, s,
		time.Duration(a.cfg.Display.PollIntervalSec)*time.Second,
		logging.Component(a.log, "poller"),
	)
	defer poller.Stop()

	m := app.New(app.Options{
		Backend: c,
		Store:   s,
		Poller:  poller,
		Log:     logging.Component(a.log, "tui"),
		Now:     a.now,

		Settings:     a.currentSettings(),
		SaveSettings: a.saveSettings,
	})

	a.log.WithField("server", a.cfg.Server.BaseURL).Info("starting tui")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
