package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/export"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
)

// openOutput is the JSON shape of `mailcal open`.
type openOutput struct {
	model.MessageBody
	Folder    model.Folder `json:"folder"`
	PlainText string       `json:"plain_text"`
}

func newFolderCmd(app *App, folder model.Folder, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			entries, err := c.List(cmd.Context(), folder)
			if err != nil {
				return writeErr(cmd, err)
			}
			if entries == nil {
				entries = []model.MailboxEntry{}
			}
			return writeOut(cmd, app, entries)
		},
	}
}

func folderFor(sent bool) model.Folder {
	if sent {
		return model.FolderSent
	}
	return model.FolderReceived
}

func newOpenCmd(app *App) *cobra.Command {
	var sent bool

	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Show a message (received messages are marked read)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			folder := folderFor(sent)

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if folder == model.FolderReceived {
				if err := c.MarkRead(cmd.Context(), id); err != nil {
					app.log.WithError(err).WithField("id", id).Warn("marking message read")
				}
			}
			body, err := c.Open(cmd.Context(), folder, id)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, openOutput{
				MessageBody: *body,
				Folder:      folder,
				PlainText:   render.PlainText(body.Text),
			})
		},
	}

	cmd.Flags().BoolVar(&sent, "sent", false, "Open from the sent folder")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a received message",
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
			if err := c.DeleteReceived(cmd.Context(), id); err != nil {
				return writeErr(cmd, err)
			}
			record(cmd.Context(), app, model.ActivityDeleted, id, "")
			return writeOut(cmd, app, map[string]any{"id": id, "deleted": true})
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	var sent bool
	var out string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Save a message as an .eml file",
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
			msg, err := exportMessage(cmd.Context(), c, folderFor(sent), id, app.now)
			if err != nil {
				return writeErr(cmd, err)
			}

			path := out
			if path == "" {
				path = msg.FileName()
			}
			if err := export.SaveFile(path, msg); err != nil {
				return writeErr(cmd, err)
			}
			record(cmd.Context(), app, model.ActivityExported, id, path)
			return writeOut(cmd, app, map[string]any{"id": id, "path": path})
		},
	}

	cmd.Flags().BoolVar(&sent, "sent", false, "Export from the sent folder")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default: mailcal-<folder>-<id>.eml)")
	return cmd
}

// exportMessage looks up the list entry for id, for the counterpart's name
// and address, and fetches its body.
func exportMessage(ctx context.Context, b api.Backend, folder model.Folder, id int64, now func() time.Time) (export.Message, error) {
	entries, err := b.List(ctx, folder)
	if err != nil {
		return export.Message{}, err
	}
	var entry *model.MailboxEntry
	for i := range entries {
		if entries[i].ID == id {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return export.Message{}, fmt.Errorf("message %d in %s: %w", id, folder, api.ErrNotFound)
	}

	body, err := b.Open(ctx, folder, id)
	if err != nil {
		return export.Message{}, err
	}
	return export.FromEntry(*entry, body, now()), nil
}
