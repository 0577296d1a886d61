package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/mailcal/internal/model"
)

// writeOut prints v as the data of a JSON envelope.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	return writeJSON(cmd.OutOrStdout(), map[string]any{"data": v}, app.PrettyJSON)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// parseID parses a message or draft id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// record appends to the activity log. A store failure is logged, not
// returned: the backend action already happened.
func record(ctx context.Context, app *App, kind string, id int64, detail string) {
	s, err := app.openStore()
	if err != nil {
		app.log.WithError(err).Warn("recording activity")
		return
	}
	defer s.Close()

	a := model.Activity{Kind: kind, MessageID: id, Detail: detail}
	if err := s.RecordActivity(ctx, a); err != nil {
		app.log.WithError(err).Warn("recording activity")
	}
}
