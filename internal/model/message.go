package model

import (
	"fmt"
	"strings"
	"time"
)

// Folder identifies which side of a conversation a mailbox entry is on.
type Folder string

const (
	FolderReceived Folder = "received"
	FolderSent     Folder = "sent"
)

// Other returns the opposite folder.
func (f Folder) Other() Folder {
	if f == FolderSent {
		return FolderReceived
	}
	return FolderSent
}

// DayMessage is a message scheduled for, or delivered on, a calendar day.
type DayMessage struct {
	ID int64 `json:"id"`

	// Counterpart is the recipient's email for messages the user sent.
	Counterpart string `json:"email"`

	// DeliveryAt is the scheduled or actual delivery time.
	DeliveryAt time.Time `json:"delivery_at"`

	Body string `json:"text"`

	// Future is set when the message has not been delivered yet.
	Future bool `json:"future"`

	// Deletable is set when the current user may still withdraw it.
	Deletable bool `json:"can_delete"`
}

// MailboxEntry is one row of the received or sent list.
type MailboxEntry struct {
	ID            int64  `json:"id"`
	Folder        Folder `json:"folder"`
	CounterpartID int64  `json:"counterpart_id"`
	FirstName     string `json:"firstname"`
	LastName      string `json:"lastname"`
	Email         string `json:"email"`
	Text          string `json:"text,omitempty"`
}

// DisplayName returns "First Last", falling back to the email address.
func (e MailboxEntry) DisplayName() string {
	name := strings.TrimSpace(e.FirstName + " " + e.LastName)
	if name == "" {
		return e.Email
	}
	return name
}

// MessageBody is the content of an opened message.
type MessageBody struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`

	// Media is the name of an attachment stored by the backend, if any.
	Media string `json:"media,omitempty"`
}

// Recipient is a user the current user may send messages to.
type Recipient struct {
	ID    int64  `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
}

// User is the public profile of a backend user.
type User struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Label returns "First Last <email>", or just the email when the user has
// no name.
func (u User) Label() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return fmt.Sprintf("%s <%s>", name, u.Email)
}

// Draft is an unsent message saved on the backend.
type Draft struct {
	ID          int64  `json:"message_id"`
	Text        string `json:"text"`
	RecipientID int64  `json:"recipient,omitempty"`
}

// Outgoing is a message about to be sent.
type Outgoing struct {
	Text         string    `json:"text"`
	DeliveryAt   time.Time `json:"delivery_at"`
	RecipientIDs []int64   `json:"recipients"`

	// DraftID links the message to the draft it was composed from.
	DraftID int64 `json:"draft_id,omitempty"`
}

// Activity kinds recorded in the local audit log.
const (
	ActivitySent         = "sent"
	ActivityWithdrawn    = "withdrawn"
	ActivityDeleted      = "deleted"
	ActivityDraftSaved   = "draft_saved"
	ActivityDraftDeleted = "draft_deleted"
	ActivityExported     = "exported"
)

// Activity is an action taken from this client.
type Activity struct {
	ID        string    `json:"id" db:"id"`
	Kind      string    `json:"kind" db:"kind"`
	MessageID int64     `json:"message_id" db:"message_id"`
	Detail    string    `json:"detail" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
