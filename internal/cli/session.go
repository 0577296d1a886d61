package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the backend session cookie stored in the keyring",
	}
	cmd.AddCommand(newSessionSetCmd(app))
	cmd.AddCommand(newSessionClearCmd(app))
	return cmd
}

func newSessionSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set [value]",
		Short: "Store the session cookie value (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			if len(args) == 1 {
				value = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return writeErr(cmd, errors.New("no session value given"))
				}
				value = line
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return writeErr(cmd, errors.New("session value is empty"))
			}

			s, err := app.openSessions()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Set(app.cfg.Server.BaseURL, value); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"server": app.cfg.Server.BaseURL, "stored": true})
		},
	}
}

func newSessionClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored session cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.openSessions()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Clear(app.cfg.Server.BaseURL); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"server": app.cfg.Server.BaseURL, "stored": false})
		},
	}
}
