// Package compose prepares outgoing messages: replies, forwards, delivery
// time parsing, and the checks run before a message is sent.
package compose

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
)

var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrDeliveryInPast = errors.New("delivery date cannot be in the past")
	ErrNoRecipient    = errors.New("at least one recipient is required")
)

// deliveryLayouts are the accepted input formats for a delivery time.
var deliveryLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// Reply returns an outgoing message addressed to the sender of entry.
// For a sent entry the recipient of the original is addressed instead.
func Reply(entry model.MailboxEntry) model.Outgoing {
	return model.Outgoing{
		RecipientIDs: []int64{entry.CounterpartID},
	}
}

// ForwardHeader is the paragraph that introduces forwarded text.
func ForwardHeader(fromEmail string) string {
	return "<p>Message forwarded from " + html.EscapeString(fromEmail) + ":</p>"
}

// Forward returns an outgoing message carrying body, prefixed with the
// forward header. Recipients are left for the caller to choose.
func Forward(fromEmail, body string) model.Outgoing {
	return model.Outgoing{
		Text: ForwardHeader(fromEmail) + body,
	}
}

// Validate checks out before it is sent. Delivery times are compared at
// minute granularity so that "now" is still accepted.
func Validate(out model.Outgoing, now time.Time) error {
	if IsBlank(out.Text) {
		return ErrEmptyText
	}
	if len(out.RecipientIDs) == 0 {
		return ErrNoRecipient
	}
	if out.DeliveryAt.Before(now.Truncate(time.Minute)) {
		return ErrDeliveryInPast
	}
	return nil
}

// IsBlank reports whether text has no visible content once markup is
// removed. Non-breaking spaces count as blank.
func IsBlank(text string) bool {
	return strings.TrimSpace(render.PlainText(text)) == ""
}

// ParseDelivery parses a delivery time in loc. Both "YYYY-MM-DD HH:MM" and
// "YYYY-MM-DDTHH:MM" are accepted.
func ParseDelivery(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range deliveryLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid delivery time %q: want YYYY-MM-DD HH:MM", s)
}

// WrapPlain turns plain text typed in a terminal into the paragraph
// markup the backend stores. Blank lines separate paragraphs.
func WrapPlain(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		p = html.EscapeString(p)
		p = strings.ReplaceAll(p, "\n", "<br>")
		paras = append(paras, "<p>"+p+"</p>")
	}
	return strings.Join(paras, "")
}
