package cli

import (
	"github.com/spf13/cobra"

	"github.com/nhle/mailcal/internal/model"
)

func newActivityCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List actions taken from this client, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.openStore()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			acts, err := s.GetActivity(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if acts == nil {
				acts = []model.Activity{}
			}
			return writeOut(cmd, app, acts)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries (0 for all)")
	return cmd
}
