package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcal/internal/compose"
	"github.com/nhle/mailcal/internal/model"
)

func newSendCmd(app *App) *cobra.Command {
	var to []int64
	var at string
	var text string
	var html bool
	var draftID int64

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Schedule a message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			delivery, err := compose.ParseDelivery(at, time.Local)
			if err != nil {
				return writeErr(cmd, err)
			}
			body := text
			if !html {
				body = compose.WrapPlain(text)
			}
			out := model.Outgoing{
				Text:         body,
				DeliveryAt:   delivery,
				RecipientIDs: to,
				DraftID:      draftID,
			}
			if err := compose.Validate(out, app.now()); err != nil {
				return writeErr(cmd, err)
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := c.Send(cmd.Context(), out); err != nil {
				return writeErr(cmd, err)
			}
			record(cmd.Context(), app, model.ActivitySent, 0,
				fmt.Sprintf("to %v at %s", out.RecipientIDs, out.DeliveryAt.Format(time.RFC3339)))
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().Int64SliceVar(&to, "to", nil, "Recipient user id (repeatable)")
	cmd.Flags().StringVar(&at, "at", "", "Delivery time, YYYY-MM-DD HH:MM")
	cmd.Flags().StringVar(&text, "text", "", "Message text; blank lines separate paragraphs")
	cmd.Flags().BoolVar(&html, "html", false, "Send --text as HTML without wrapping")
	cmd.Flags().Int64Var(&draftID, "draft", 0, "Draft the message was composed from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("at")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newRecipientsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recipients",
		Short: "List possible recipients (falls back to the local cache)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := app.openStore()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer s.Close()

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			recipients, err := c.Recipients(ctx)
			if err != nil {
				cached, cerr := s.GetRecipients(ctx)
				if cerr != nil || len(cached) == 0 {
					return writeErr(cmd, err)
				}
				app.log.WithError(err).Warn("backend unreachable, using cached recipients")
				return writeOut(cmd, app, cached)
			}
			if err := s.ReplaceRecipients(ctx, recipients); err != nil {
				app.log.WithError(err).Warn("caching recipients")
			}
			if recipients == nil {
				recipients = []model.Recipient{}
			}
			return writeOut(cmd, app, recipients)
		},
	}
}

func newUserCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "user <id>",
		Short: "Show a user's public profile",
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
			u, err := c.User(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, u)
		},
	}
}

func newDraftsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "drafts",
		Short: "List drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			drafts, err := c.Drafts(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if drafts == nil {
				drafts = []model.Draft{}
			}
			return writeOut(cmd, app, drafts)
		},
	}
}

func newDraftCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft commands",
	}
	cmd.AddCommand(newDraftShowCmd(app))
	cmd.AddCommand(newDraftSaveCmd(app))
	cmd.AddCommand(newDraftDeleteCmd(app))
	return cmd
}

func newDraftShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a draft",
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
			d, err := c.Draft(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, d)
		},
	}
}

func newDraftSaveCmd(app *App) *cobra.Command {
	var text string
	var html bool

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if compose.IsBlank(text) {
				return writeErr(cmd, compose.ErrEmptyText)
			}
			body := strings.TrimSpace(text)
			if !html {
				body = compose.WrapPlain(text)
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := c.SaveDraft(cmd.Context(), body)
			if err != nil {
				return writeErr(cmd, err)
			}
			record(cmd.Context(), app, model.ActivityDraftSaved, id, "")
			return writeOut(cmd, app, model.Draft{ID: id, Text: body})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Draft text")
	cmd.Flags().BoolVar(&html, "html", false, "Store --text as HTML without wrapping")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newDraftDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft",
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
			if err := c.DeleteDraft(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			record(cmd.Context(), app, model.ActivityDraftDeleted, id, "")
			return writeOut(cmd, app, map[string]any{"id": id, "deleted": true})
		},
	}
}
