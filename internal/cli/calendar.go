package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcal/internal/calendar"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
)

func newCalendarCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [YYYY-MM]",
		Short: "Print the month grid (default: this month)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := app.now()
			ref := calendar.ReferenceFor(now)
			if len(args) == 1 {
				r, err := calendar.ParseReference(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				ref = r
			}

			g := calendar.BuildGridAt(ref.Year, ref.Month, now)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), render.Grid(g, 0))
			return err
		},
	}
}

// dayOutput is the JSON shape of `mailcal day`.
type dayOutput struct {
	Date     string             `json:"date"`
	Messages []model.DayMessage `json:"messages"`
}

func newDayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "List the messages scheduled for, or delivered on, a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid day %q, expected YYYY-MM-DD", args[0]))
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			msgs, err := c.DayMessages(cmd.Context(), day.Year(), day.Month(), day.Day())
			if err != nil {
				return writeErr(cmd, err)
			}
			if msgs == nil {
				msgs = []model.DayMessage{}
			}
			return writeOut(cmd, app, dayOutput{Date: args[0], Messages: msgs})
		},
	}
}

func newWithdrawCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <id>",
		Short: "Withdraw a scheduled message before it is delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := c.Withdraw(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			record(cmd.Context(), app, model.ActivityWithdrawn, id, "")
			return writeOut(cmd, app, map[string]any{"id": id, "withdrawn": true})
		},
	}
}
