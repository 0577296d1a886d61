package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nhle/mailcal/internal/model"
)

// deliveryLayout is the form format the backend parses with fromisoformat.
const deliveryLayout = "2006-01-02T15:04"

type wireRecipient struct {
	ID    flexInt `json:"id"`
	Email string  `json:"email"`
}

func validateRecipient(w *wireRecipient) error {
	if !w.ID.Set {
		return fmt.Errorf("%w: id", errMissingField)
	}
	if strings.TrimSpace(w.Email) == "" {
		return fmt.Errorf("%w: email", errMissingField)
	}
	return nil
}

type wireDraft struct {
	MessageID flexInt `json:"message_id"`
	Text      string  `json:"text"`
	Recipient flexInt `json:"recipient"`
}

func validateDraft(w *wireDraft) error {
	if !w.MessageID.Set {
		return fmt.Errorf("%w: message_id", errMissingField)
	}
	return nil
}

func (w wireDraft) model() model.Draft {
	return model.Draft{
		ID:          w.MessageID.Value,
		Text:        w.Text,
		RecipientID: w.Recipient.Value,
	}
}

type wireUser struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Recipients lists the users the current user may write to.
func (c *Client) Recipients(ctx context.Context) ([]model.Recipient, error) {
	raw, err := c.getRaw(ctx, "/user/get_recipients")
	if err != nil {
		return nil, err
	}

	wire, err := decodeList(raw, validateRecipient, c.log.WithField("endpoint", "recipients"))
	if err != nil {
		return nil, err
	}

	out := make([]model.Recipient, 0, len(wire))
	for _, w := range wire {
		out = append(out, model.Recipient{ID: w.ID.Value, Email: w.Email})
	}
	return out, nil
}

// User fetches the public profile of a user.
func (c *Client) User(ctx context.Context, id int64) (*model.User, error) {
	var w wireUser
	if err := c.getJSON(ctx, fmt.Sprintf("/api/user/%d", id), &w); err != nil {
		return nil, err
	}
	return &model.User{Email: w.Email, FirstName: w.FirstName, LastName: w.LastName}, nil
}

// Send submits a message for delivery at out.DeliveryAt. Callers should
// validate out first; the backend rejects past delivery times and empty
// text as well.
func (c *Client) Send(ctx context.Context, out model.Outgoing) error {
	form := url.Values{}
	form.Set("text", out.Text)
	form.Set("delivery_date", out.DeliveryAt.In(c.loc).Format(deliveryLayout))
	for _, id := range out.RecipientIDs {
		form.Add("recipient", strconv.FormatInt(id, 10))
	}
	if out.DraftID != 0 {
		form.Set("draft_id", strconv.FormatInt(out.DraftID, 10))
	}
	return c.postForm(ctx, "/api/message/", form, nil)
}

// Drafts lists the current user's drafts.
func (c *Client) Drafts(ctx context.Context) ([]model.Draft, error) {
	raw, err := c.getRaw(ctx, "/api/message/draft/all")
	if err != nil {
		return nil, err
	}

	wire, err := decodeList(raw, validateDraft, c.log.WithField("endpoint", "drafts"))
	if err != nil {
		return nil, err
	}

	out := make([]model.Draft, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.model())
	}
	return out, nil
}

// Draft fetches a single draft.
func (c *Client) Draft(ctx context.Context, id int64) (*model.Draft, error) {
	var w wireDraft
	if err := c.getJSON(ctx, fmt.Sprintf("/api/message/draft/%d", id), &w); err != nil {
		return nil, err
	}
	d := w.model()
	if d.ID == 0 {
		d.ID = id
	}
	return &d, nil
}

// SaveDraft stores text as a new draft and returns its id.
func (c *Client) SaveDraft(ctx context.Context, text string) (int64, error) {
	form := url.Values{}
	form.Set("text", text)

	var resp struct {
		MessageID flexInt `json:"message_id"`
	}
	if err := c.postForm(ctx, "/api/message/draft", form, &resp); err != nil {
		return 0, err
	}
	if !resp.MessageID.Set {
		return 0, fmt.Errorf("saving draft: %w: message_id", errMissingField)
	}
	return resp.MessageID.Value, nil
}

// DeleteDraft removes a draft.
func (c *Client) DeleteDraft(ctx context.Context, id int64) error {
	return c.deleteJSON(ctx, fmt.Sprintf("/api/message/draft/%d", id), nil)
}
