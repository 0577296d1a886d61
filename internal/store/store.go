package store

import (
	"context"

	"github.com/nhle/mailcal/internal/model"
)

// Keys used in the ui_state table.
const (
	KeyCalendarReference = "calendar.reference"
	KeyMailboxFolder     = "mailbox.folder"
	KeyInboxBaseline     = "inbox.baseline"
)

// Store defines the persistence interface for local client state. It never
// holds message contents; those stay on the backend.
type Store interface {
	// === UI state ===

	GetUIState(ctx context.Context, key string) (string, bool, error)
	SetUIState(ctx context.Context, key, value string) error

	// === Recipient cache ===

	ReplaceRecipients(ctx context.Context, recipients []model.Recipient) error
	GetRecipients(ctx context.Context) ([]model.Recipient, error)

	// === Seen messages ===

	MarkSeen(ctx context.Context, ids []int64) ([]int64, error)
	CountSeen(ctx context.Context) (int, error)

	// === Activity log ===

	RecordActivity(ctx context.Context, a model.Activity) error
	GetActivity(ctx context.Context, limit int) ([]model.Activity, error)
}
