// Package export writes messages as RFC 5322 files that desktop mail
// clients can open.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
)

// subjectLength caps the subject derived from the message text.
const subjectLength = 60

// Message is a message ready to be exported.
type Message struct {
	ID     int64
	Folder model.Folder

	// From and To are "Name <addr>" pairs; empty addresses are omitted.
	FromName  string
	FromEmail string
	ToName    string
	ToEmail   string

	Date time.Time

	// HTML is the body as stored by the backend.
	HTML string
}

// FromEntry builds an export message from a mailbox entry and its body.
// The counterpart is the sender of a received message and the recipient
// of a sent one.
func FromEntry(entry model.MailboxEntry, body *model.MessageBody, date time.Time) Message {
	name := strings.TrimSpace(entry.FirstName + " " + entry.LastName)
	msg := Message{
		ID:     entry.ID,
		Folder: entry.Folder,
		Date:   date,
		HTML:   body.Text,
	}
	if entry.Folder == model.FolderSent {
		msg.ToName, msg.ToEmail = name, entry.Email
	} else {
		msg.FromName, msg.FromEmail = name, entry.Email
	}
	return msg
}

// Subject derives a subject line from the first line of the body.
func (m Message) Subject() string {
	s := render.Preview(m.HTML, subjectLength)
	if s == "" {
		return fmt.Sprintf("Message %d", m.ID)
	}
	return s
}

// MessageID returns a stable Message-ID for m.
func (m Message) MessageID() string {
	return fmt.Sprintf("%s-%d@mailcal", m.Folder, m.ID)
}

// FileName is the default name for m when saved to disk.
func (m Message) FileName() string {
	return fmt.Sprintf("mailcal-%s-%d.eml", m.Folder, m.ID)
}

// SaveFile writes m to path, creating the parent directory.
func SaveFile(path string, m Message) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteEML(f, m)
}

// WriteEML writes m as a multipart/alternative message with a text/plain
// and a text/html part.
func WriteEML(w io.Writer, m Message) error {
	var h mail.Header
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetSubject(m.Subject())
	h.SetMessageID(m.MessageID())
	if m.FromEmail != "" {
		h.SetAddressList("From", []*mail.Address{{Name: m.FromName, Address: m.FromEmail}})
	}
	if m.ToEmail != "" {
		h.SetAddressList("To", []*mail.Address{{Name: m.ToName, Address: m.ToEmail}})
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating mail writer: %w", err)
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("creating inline part: %w", err)
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", render.PlainText(m.HTML) + "\n"},
		{"text/html", m.HTML},
	}
	for _, p := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		pw, err := iw.CreatePart(ph)
		if err != nil {
			return fmt.Errorf("creating %s part: %w", p.contentType, err)
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			pw.Close()
			return fmt.Errorf("writing %s part: %w", p.contentType, err)
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("closing %s part: %w", p.contentType, err)
		}
	}

	if err := iw.Close(); err != nil {
		return fmt.Errorf("closing inline part: %w", err)
	}
	return mw.Close()
}

// Parsed is the content read back from an exported file.
type Parsed struct {
	Subject   string
	From      []string
	To        []string
	MessageID string
	TextBody  string
	HTMLBody  string
}

// ReadEML parses an exported message, extracting the text/plain and
// text/html bodies.
func ReadEML(r io.Reader) (*Parsed, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	p := &Parsed{}
	p.Subject, _ = mr.Header.Subject()
	p.MessageID, _ = mr.Header.MessageID()
	p.From = addresses(mr.Header, "From")
	p.To = addresses(mr.Header, "To")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("reading %s body: %w", contentType, err)
		}

		body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))
		switch contentType {
		case "text/plain":
			p.TextBody = string(bytes.TrimRight(body, "\n"))
		case "text/html":
			p.HTMLBody = string(body)
		}
	}
	return p, nil
}

func addresses(h mail.Header, key string) []string {
	list, err := h.AddressList(key)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Address)
	}
	return out
}
