package api

import (
	"context"
	"time"

	"github.com/nhle/mailcal/internal/model"
)

// Backend is the set of backend operations the UI and CLI depend on.
// *Client implements it; tests substitute fakes.
type Backend interface {
	// DayMessages returns the messages for a calendar day.
	DayMessages(ctx context.Context, year int, month time.Month, day int) ([]model.DayMessage, error)

	// Withdraw cancels a scheduled message.
	Withdraw(ctx context.Context, id int64) error

	// List returns the entries of a mailbox folder.
	List(ctx context.Context, folder model.Folder) ([]model.MailboxEntry, error)

	// Open returns the body of a message.
	Open(ctx context.Context, folder model.Folder, id int64) (*model.MessageBody, error)

	// MarkRead flags a received message as read.
	MarkRead(ctx context.Context, id int64) error

	// DeleteReceived removes a received message for the current user.
	DeleteReceived(ctx context.Context, id int64) error

	// Recipients lists possible recipients.
	Recipients(ctx context.Context) ([]model.Recipient, error)

	// User fetches a user's public profile.
	User(ctx context.Context, id int64) (*model.User, error)

	// Send submits a message.
	Send(ctx context.Context, out model.Outgoing) error

	// Drafts lists drafts.
	Drafts(ctx context.Context) ([]model.Draft, error)

	// Draft fetches one draft.
	Draft(ctx context.Context, id int64) (*model.Draft, error)

	// SaveDraft stores a draft and returns its id.
	SaveDraft(ctx context.Context, text string) (int64, error)

	// DeleteDraft removes a draft.
	DeleteDraft(ctx context.Context, id int64) error
}

var _ Backend = (*Client)(nil)
