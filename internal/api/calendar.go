package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/mailcal/internal/model"
)

// withdrawFailed is the message_id the backend returns when a withdraw
// is refused.
const withdrawFailed = -1

// wireDayMessage is the backend's shape for a calendar day entry.
type wireDayMessage struct {
	MessageID flexInt  `json:"message_id"`
	Email     string   `json:"email"`
	Hour      flexInt  `json:"hour"`
	Minute    flexInt  `json:"minute"`
	Text      string   `json:"text"`
	Future    flexBool `json:"future"`
	CanDelete flexBool `json:"candelete"`
}

func validateDayMessage(w *wireDayMessage) error {
	if !w.MessageID.Set {
		return fmt.Errorf("%w: message_id", errMissingField)
	}
	if strings.TrimSpace(w.Email) == "" {
		return fmt.Errorf("%w: email", errMissingField)
	}
	if w.Hour.Value < 0 || w.Hour.Value > 23 {
		return fmt.Errorf("hour out of range: %d", w.Hour.Value)
	}
	if w.Minute.Value < 0 || w.Minute.Value > 59 {
		return fmt.Errorf("minute out of range: %d", w.Minute.Value)
	}
	return nil
}

// DayMessages returns the messages the current user scheduled for, or
// sent on, the given day, in backend order.
func (c *Client) DayMessages(
	ctx context.Context,
	year int,
	month time.Month,
	day int,
) ([]model.DayMessage, error) {
	// The backend indexes months from 0.
	path := fmt.Sprintf("/api/calendar/%d/%d/%d", day, int(month)-1, year)

	raw, err := c.getRaw(ctx, path)
	if err != nil {
		return nil, err
	}

	wire, err := decodeList(raw, validateDayMessage, c.log.WithField("endpoint", "calendar"))
	if err != nil {
		return nil, err
	}

	msgs := make([]model.DayMessage, 0, len(wire))
	for _, w := range wire {
		msgs = append(msgs, model.DayMessage{
			ID:          w.MessageID.Value,
			Counterpart: w.Email,
			DeliveryAt: time.Date(
				year, month, day,
				int(w.Hour.Value), int(w.Minute.Value), 0, 0,
				c.loc,
			),
			Body:      w.Text,
			Future:    bool(w.Future),
			Deletable: bool(w.CanDelete),
		})
	}
	return msgs, nil
}

type withdrawResponse struct {
	MessageID flexInt `json:"message_id"`
}

// Withdraw cancels a scheduled message. It returns ErrWithdrawRejected
// when the backend reports the sentinel failure value.
func (c *Client) Withdraw(ctx context.Context, id int64) error {
	var resp withdrawResponse
	path := fmt.Sprintf("/api/lottery/message/delete/%d", id)
	if err := c.deleteJSON(ctx, path, &resp); err != nil {
		return err
	}
	if !resp.MessageID.Set || resp.MessageID.Value == withdrawFailed {
		return fmt.Errorf("message %d: %w", id, ErrWithdrawRejected)
	}
	return nil
}
