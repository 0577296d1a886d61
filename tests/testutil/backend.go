package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/model"
)

// FakeBackend is an in-memory api.Backend that records calls.
type FakeBackend struct {
	mu sync.Mutex

	Days          map[string][]model.DayMessage
	Folders       map[model.Folder][]model.MailboxEntry
	Bodies        map[int64]*model.MessageBody
	RecipientList []model.Recipient
	Users         map[int64]model.User
	DraftList     []model.Draft

	// Err, when set, is returned by every call.
	Err error

	Withdrawn []int64
	Read      []int64
	Deleted   []int64
	SentMsgs  []model.Outgoing
	Saved     []string
	Removed   []int64
	nextDraft int64
}

var _ api.Backend = (*FakeBackend)(nil)

// NewFakeBackend returns an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Days:      make(map[string][]model.DayMessage),
		Folders:   make(map[model.Folder][]model.MailboxEntry),
		Bodies:    make(map[int64]*model.MessageBody),
		Users:     make(map[int64]model.User),
		nextDraft: 100,
	}
}

// DayKey formats the key used in Days.
func DayKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

func (f *FakeBackend) DayMessages(_ context.Context, year int, month time.Month, day int) ([]model.DayMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Days[DayKey(year, month, day)], nil
}

func (f *FakeBackend) Withdraw(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Withdrawn = append(f.Withdrawn, id)
	for k, msgs := range f.Days {
		kept := msgs[:0:0]
		for _, m := range msgs {
			if m.ID != id {
				kept = append(kept, m)
			}
		}
		f.Days[k] = kept
	}
	return nil
}

func (f *FakeBackend) List(_ context.Context, folder model.Folder) ([]model.MailboxEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Folders[folder], nil
}

func (f *FakeBackend) Open(_ context.Context, _ model.Folder, id int64) (*model.MessageBody, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	body, ok := f.Bodies[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return body, nil
}

func (f *FakeBackend) MarkRead(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Read = append(f.Read, id)
	return nil
}

func (f *FakeBackend) DeleteReceived(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Deleted = append(f.Deleted, id)
	entries := f.Folders[model.FolderReceived]
	kept := entries[:0:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.Folders[model.FolderReceived] = kept
	return nil
}

func (f *FakeBackend) Recipients(_ context.Context) ([]model.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.RecipientList, nil
}

func (f *FakeBackend) User(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	u, ok := f.Users[id]
	if !ok {
		return nil, api.ErrNotFound
	}
	return &u, nil
}

func (f *FakeBackend) Send(_ context.Context, out model.Outgoing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.SentMsgs = append(f.SentMsgs, out)
	return nil
}

func (f *FakeBackend) Drafts(_ context.Context) ([]model.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.DraftList, nil
}

func (f *FakeBackend) Draft(_ context.Context, id int64) (*model.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, d := range f.DraftList {
		if d.ID == id {
			d := d
			return &d, nil
		}
	}
	return nil, api.ErrNotFound
}

func (f *FakeBackend) SaveDraft(_ context.Context, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	f.nextDraft++
	f.Saved = append(f.Saved, text)
	f.DraftList = append(f.DraftList, model.Draft{ID: f.nextDraft, Text: text})
	return f.nextDraft, nil
}

func (f *FakeBackend) DeleteDraft(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Removed = append(f.Removed, id)
	kept := f.DraftList[:0:0]
	for _, d := range f.DraftList {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	f.DraftList = kept
	return nil
}
