// Package cli implements the mailcal command line. With no subcommand it
// starts the terminal UI; the subcommands print JSON for scripting.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/credential"
	"github.com/nhle/mailcal/internal/logging"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/store"
)

// App holds global flags and the resources shared by subcommands.
type App struct {
	ConfigPath string
	PrettyJSON bool
	LogStderr  bool

	cfg    *model.AppConfig
	log    *logrus.Logger
	closer io.Closer

	// openSessions opens the credential store; tests replace it.
	openSessions func() (*credential.Sessions, error)

	now func() time.Time
}

// NewRootCmd builds the mailcal command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	if app.openSessions == nil {
		app.openSessions = credential.Open
	}
	if app.now == nil {
		app.now = time.Now
	}

	cmd := &cobra.Command{
		Use:          "mailcal",
		Short:        "Calendar and mailbox client for the message backend",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  mailcal

  # Print a month
  mailcal calendar 2024-02

  # Messages of a day, as JSON
  mailcal day 2024-02-29 --pretty

  # Schedule a message
  mailcal send --to 3 --at "2030-05-04 18:45" --text "see you"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.teardown()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", model.DefaultConfigPath(), "Path to the config file")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().BoolVar(&app.LogStderr, "log-stderr", false, "Log to stderr instead of the log file")

	cmd.AddCommand(newCalendarCmd(app))
	cmd.AddCommand(newDayCmd(app))
	cmd.AddCommand(newWithdrawCmd(app))
	cmd.AddCommand(newFolderCmd(app, model.FolderReceived, "inbox", "List received messages"))
	cmd.AddCommand(newFolderCmd(app, model.FolderSent, "sent", "List sent messages"))
	cmd.AddCommand(newOpenCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newSendCmd(app))
	cmd.AddCommand(newRecipientsCmd(app))
	cmd.AddCommand(newUserCmd(app))
	cmd.AddCommand(newDraftsCmd(app))
	cmd.AddCommand(newDraftCmd(app))
	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newActivityCmd(app))

	return cmd
}

// setup loads the configuration and opens the log.
func (a *App) setup() error {
	cfg, err := model.LoadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Stderr: a.LogStderr,
	})
	if err != nil {
		return err
	}
	a.log = logger
	a.closer = closer
	return nil
}

func (a *App) teardown() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// sessions opens the credential store, or returns nil when it is
// unavailable.
func (a *App) sessions() *credential.Sessions {
	s, err := a.openSessions()
	if err != nil {
		a.log.WithError(err).Warn("credential store unavailable")
		return nil
	}
	return s
}

// client returns a backend client configured from the config file and the
// stored session.
func (a *App) client() (*api.Client, error) {
	srv := a.cfg.Server
	session, err := credential.Resolve(a.sessions(), srv.BaseURL)
	if err != nil {
		return nil, err
	}
	if session == "" {
		a.log.Warn("no session stored; requests will be anonymous")
	}
	return api.NewClient(srv.BaseURL, srv.SessionCookie, session,
		api.WithTimeout(time.Duration(srv.TimeoutSec)*time.Second),
		api.WithMaxRetries(srv.MaxRetries),
		api.WithLogger(logging.Component(a.log, "api")),
	), nil
}

// openStore opens the local state database.
func (a *App) openStore() (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}
