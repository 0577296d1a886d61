package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/mailcal/internal/model"
)

// wireMailboxEntry covers both list shapes: received entries carry
// sender_id, sent entries carry recipient_id.
type wireMailboxEntry struct {
	IDMessage   flexInt `json:"id_message"`
	SenderID    flexInt `json:"sender_id"`
	RecipientID flexInt `json:"recipient_id"`
	FirstName   string  `json:"firstname"`
	LastName    string  `json:"lastname"`
	Email       string  `json:"email"`
	Text        string  `json:"text"`
}

func validateMailboxEntry(w *wireMailboxEntry) error {
	if !w.IDMessage.Set {
		return fmt.Errorf("%w: id_message", errMissingField)
	}
	if strings.TrimSpace(w.Email) == "" {
		return fmt.Errorf("%w: email", errMissingField)
	}
	return nil
}

type wireBody struct {
	Text  string `json:"text"`
	Media string `json:"media"`
}

// Received lists messages delivered to the current user.
func (c *Client) Received(ctx context.Context) ([]model.MailboxEntry, error) {
	return c.listFolder(ctx, model.FolderReceived)
}

// Sent lists delivered messages the current user sent.
func (c *Client) Sent(ctx context.Context) ([]model.MailboxEntry, error) {
	return c.listFolder(ctx, model.FolderSent)
}

// List lists the given folder.
func (c *Client) List(ctx context.Context, folder model.Folder) ([]model.MailboxEntry, error) {
	return c.listFolder(ctx, folder)
}

func (c *Client) listFolder(ctx context.Context, folder model.Folder) ([]model.MailboxEntry, error) {
	raw, err := c.getRaw(ctx, "/api/message/"+string(folder))
	if err != nil {
		return nil, err
	}

	wire, err := decodeList(raw, validateMailboxEntry, c.log.WithField("endpoint", string(folder)))
	if err != nil {
		return nil, err
	}

	entries := make([]model.MailboxEntry, 0, len(wire))
	for _, w := range wire {
		counterpart := w.SenderID.Value
		if folder == model.FolderSent {
			counterpart = w.RecipientID.Value
		}
		entries = append(entries, model.MailboxEntry{
			ID:            w.IDMessage.Value,
			Folder:        folder,
			CounterpartID: counterpart,
			FirstName:     w.FirstName,
			LastName:      w.LastName,
			Email:         w.Email,
			Text:          w.Text,
		})
	}
	return entries, nil
}

// Open fetches the body of a message in folder.
func (c *Client) Open(ctx context.Context, folder model.Folder, id int64) (*model.MessageBody, error) {
	var w wireBody
	path := fmt.Sprintf("/api/message/%s/%d", folder, id)
	if err := c.getJSON(ctx, path, &w); err != nil {
		return nil, err
	}
	return &model.MessageBody{ID: id, Text: w.Text, Media: w.Media}, nil
}

// OpenReceived fetches the body of a received message.
func (c *Client) OpenReceived(ctx context.Context, id int64) (*model.MessageBody, error) {
	return c.Open(ctx, model.FolderReceived, id)
}

// OpenSent fetches the body of a sent message.
func (c *Client) OpenSent(ctx context.Context, id int64) (*model.MessageBody, error) {
	return c.Open(ctx, model.FolderSent, id)
}

// MarkRead flags a received message as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.getJSON(ctx, fmt.Sprintf("/api/message/read_message/%d", id), nil)
}

// DeleteReceived removes a received message from the current user's
// mailbox. The sender's copy is unaffected.
func (c *Client) DeleteReceived(ctx context.Context, id int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/message/%d", id), nil)
}
