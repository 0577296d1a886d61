package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/mailcal/internal/calendar"
	"github.com/nhle/mailcal/internal/export"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/store"
	settingsview "github.com/nhle/mailcal/internal/ui/config"
	"github.com/nhle/mailcal/internal/ui/reader"
)

// stateRestoredMsg carries the UI state saved by the previous session.
type stateRestoredMsg struct {
	ref    *calendar.ReferenceDate
	folder model.Folder
}

// forwardReadyMsg carries the body of a message about to be forwarded.
type forwardReadyMsg struct {
	entry model.MailboxEntry
	body  *model.MessageBody
	err   error
}

// recipientsLoadedMsg carries the recipient list for the compose form.
type recipientsLoadedMsg struct {
	recipients []model.Recipient
	fromCache  bool
	err        error
}

// sentMsg is sent after a message was submitted.
type sentMsg struct {
	out model.Outgoing
	err error
}

// draftSavedMsg is sent after a draft was stored.
type draftSavedMsg struct {
	id  int64
	err error
}

// actionDoneMsg reports the outcome of a one-shot action.
type actionDoneMsg struct {
	kind   string
	status string
	err    error
}

// restoreState reads the last displayed month and folder from the store.
func (m Model) restoreState() tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx := context.Background()
		var msg stateRestoredMsg

		if v, ok, err := s.GetUIState(ctx, store.KeyCalendarReference); err != nil {
			log.WithError(err).Warn("reading saved month")
		} else if ok {
			if ref, err := calendar.ParseReference(v); err == nil {
				msg.ref = &ref
			}
		}

		if v, ok, err := s.GetUIState(ctx, store.KeyMailboxFolder); err != nil {
			log.WithError(err).Warn("reading saved folder")
		} else if ok && (v == string(model.FolderReceived) || v == string(model.FolderSent)) {
			msg.folder = model.Folder(v)
		}

		return msg
	}
}

// saveUIState persists a UI state value. Failures are logged only.
func (m Model) saveUIState(key, value string) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		if err := s.SetUIState(context.Background(), key, value); err != nil {
			log.WithError(err).WithField("key", key).Warn("saving ui state")
		}
		return nil
	}
}

// recordActivity appends to the local activity log. Failures are logged
// only.
func (m Model) recordActivity(kind string, id int64, detail string) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		a := model.Activity{Kind: kind, MessageID: id, Detail: detail}
		if err := s.RecordActivity(context.Background(), a); err != nil {
			log.WithError(err).WithField("kind", kind).Warn("recording activity")
		}
		return nil
	}
}

// open fetches a message for the reader. Received messages are marked read
// first.
func (m Model) open(entry model.MailboxEntry) tea.Cmd {
	b := m.backend
	log := m.log
	return func() tea.Msg {
		ctx := context.Background()
		if entry.Folder == model.FolderReceived {
			if err := b.MarkRead(ctx, entry.ID); err != nil {
				log.WithError(err).WithField("id", entry.ID).Warn("marking message read")
			}
		}
		body, err := b.Open(ctx, entry.Folder, entry.ID)
		return reader.LoadedMsg{Entry: entry, Body: body, Err: err}
	}
}

// fetchForForward fetches the body of a message to be forwarded.
func (m Model) fetchForForward(entry model.MailboxEntry) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		body, err := b.Open(context.Background(), entry.Folder, entry.ID)
		if err != nil {
			return forwardReadyMsg{err: fmt.Errorf("opening message %d: %w", entry.ID, err)}
		}
		return forwardReadyMsg{entry: entry, body: body}
	}
}

// loadRecipients fetches the recipient list and refreshes the local cache.
// When the backend fails, the cached list is used instead.
func (m Model) loadRecipients() tea.Cmd {
	b := m.backend
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx := context.Background()
		recipients, err := b.Recipients(ctx)
		if err == nil {
			if cerr := s.ReplaceRecipients(ctx, recipients); cerr != nil {
				log.WithError(cerr).Warn("caching recipients")
			}
			return recipientsLoadedMsg{recipients: recipients}
		}

		log.WithError(err).Warn("fetching recipients, falling back to cache")
		cached, cerr := s.GetRecipients(ctx)
		if cerr != nil || len(cached) == 0 {
			return recipientsLoadedMsg{err: fmt.Errorf("loading recipients: %w", err)}
		}
		return recipientsLoadedMsg{recipients: cached, fromCache: true}
	}
}

// send submits out to the backend.
func (m Model) send(out model.Outgoing) tea.Cmd {
	b := m.backend
	log := m.log
	return func() tea.Msg {
		if err := b.Send(context.Background(), out); err != nil {
			return sentMsg{err: fmt.Errorf("sending message: %w", err)}
		}
		log.WithFields(logrus.Fields{
			"recipients": out.RecipientIDs,
			"delivery":   out.DeliveryAt,
			"draft":      out.DraftID,
		}).Info("message sent")
		return sentMsg{out: out}
	}
}

// saveDraft stores text as a new draft. When it replaces an existing draft,
// the old one is deleted once the new one is saved.
func (m Model) saveDraft(text string, replaces int64) tea.Cmd {
	b := m.backend
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx := context.Background()
		id, err := b.SaveDraft(ctx, text)
		if err != nil {
			return draftSavedMsg{err: fmt.Errorf("saving draft: %w", err)}
		}
		if replaces != 0 && replaces != id {
			if err := b.DeleteDraft(ctx, replaces); err != nil {
				log.WithError(err).WithField("id", replaces).Warn("deleting replaced draft")
			}
		}
		if err := s.RecordActivity(ctx, model.Activity{Kind: model.ActivityDraftSaved, MessageID: id}); err != nil {
			log.WithError(err).Warn("recording activity")
		}
		return draftSavedMsg{id: id}
	}
}

// deleteDraft removes a draft.
func (m Model) deleteDraft(id int64) tea.Cmd {
	b := m.backend
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx := context.Background()
		if err := b.DeleteDraft(ctx, id); err != nil {
			return actionDoneMsg{err: fmt.Errorf("deleting draft %d: %w", id, err)}
		}
		if err := s.RecordActivity(ctx, model.Activity{Kind: model.ActivityDraftDeleted, MessageID: id}); err != nil {
			log.WithError(err).Warn("recording activity")
		}
		return actionDoneMsg{
			kind:   model.ActivityDraftDeleted,
			status: fmt.Sprintf("Draft %d deleted", id),
		}
	}
}

// deleteReceived removes a received message.
func (m Model) deleteReceived(id int64) tea.Cmd {
	b := m.backend
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx := context.Background()
		if err := b.DeleteReceived(ctx, id); err != nil {
			return actionDoneMsg{err: fmt.Errorf("deleting message %d: %w", id, err)}
		}
		if err := s.RecordActivity(ctx, model.Activity{Kind: model.ActivityDeleted, MessageID: id}); err != nil {
			log.WithError(err).Warn("recording activity")
		}
		return actionDoneMsg{
			kind:   model.ActivityDeleted,
			status: fmt.Sprintf("Message %d deleted", id),
		}
	}
}

// export writes a message to the export directory as an .eml file.
func (m Model) export(entry model.MailboxEntry) tea.Cmd {
	b := m.backend
	s := m.store
	log := m.log
	dir := m.exportDir
	now := m.now
	return func() tea.Msg {
		ctx := context.Background()
		body, err := b.Open(ctx, entry.Folder, entry.ID)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("opening message %d: %w", entry.ID, err)}
		}

		msg := export.FromEntry(entry, body, now())
		path := filepath.Join(dir, msg.FileName())
		if err := export.SaveFile(path, msg); err != nil {
			return actionDoneMsg{err: err}
		}

		if err := s.RecordActivity(ctx, model.Activity{Kind: model.ActivityExported, MessageID: entry.ID, Detail: path}); err != nil {
			log.WithError(err).Warn("recording activity")
		}
		return actionDoneMsg{
			kind:   model.ActivityExported,
			status: "Exported to " + path,
		}
	}
}

// submitSettings tests and saves edited settings.
func (m Model) submitSettings(s settingsview.Settings) tea.Cmd {
	save := m.saveSettings
	log := m.log
	return func() tea.Msg {
		if save == nil {
			return settingsview.ResultMsg{Err: errors.New("settings cannot be changed in this session")}
		}
		detail, err := save(context.Background(), s)
		if err != nil {
			log.WithError(err).WithField("server", s.BaseURL).Warn("saving settings")
			return settingsview.ResultMsg{Err: err}
		}
		log.WithField("server", s.BaseURL).Info("settings saved")
		return settingsview.ResultMsg{Detail: detail}
	}
}
