package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/credential"
	"github.com/nhle/mailcal/internal/logging"
	"github.com/nhle/mailcal/internal/model"
	settingsview "github.com/nhle/mailcal/internal/ui/config"
)

// currentSettings returns the values shown in the settings view.
func (a *App) currentSettings() settingsview.Settings {
	return settingsview.Settings{
		BaseURL:         a.cfg.Server.BaseURL,
		PollIntervalSec: a.cfg.Display.PollIntervalSec,
		LogLevel:        a.cfg.Log.Level,
	}
}

// saveSettings tests s against the backend, then stores the session in the
// keyring and writes the config file. Nothing is saved when the test fails.
func (a *App) saveSettings(ctx context.Context, s settingsview.Settings) (string, error) {
	sessions := a.sessions()
	session := s.Session
	if session == "" {
		var err error
		session, err = credential.Resolve(sessions, s.BaseURL)
		if err != nil {
			return "", err
		}
	}

	srv := a.cfg.Server
	c := api.NewClient(s.BaseURL, srv.SessionCookie, session,
		api.WithTimeout(time.Duration(srv.TimeoutSec)*time.Second),
		api.WithMaxRetries(0),
		api.WithLogger(logging.Component(a.log, "api")),
	)
	recipients, err := c.Recipients(ctx)
	if err != nil {
		return "", fmt.Errorf("testing connection: %w", err)
	}

	if s.Session != "" {
		if sessions == nil {
			return "", errors.New("credential store unavailable, session not saved")
		}
		if err := sessions.Set(s.BaseURL, s.Session); err != nil {
			return "", err
		}
	}

	cfg := *a.cfg
	cfg.Server.BaseURL = s.BaseURL
	cfg.Display.PollIntervalSec = s.PollIntervalSec
	cfg.Log.Level = s.LogLevel
	if err := model.SaveConfig(a.ConfigPath, &cfg); err != nil {
		return "", err
	}
	a.cfg = &cfg

	return fmt.Sprintf("%d recipients reachable at %s", len(recipients), s.BaseURL), nil
}
