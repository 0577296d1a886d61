package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcal/internal/model"
)

// newTestClient starts srv and returns a client pointed at it.
func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithBackoff(time.Millisecond),
		WithLocation(time.UTC),
	}, opts...)
	return NewClient(srv.URL+"/", "session", "s3cr3t", opts...)
}

func TestDayMessagesDecodesBothEncodings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/calendar/29/1/2024", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		cookie, err := r.Cookie("session")
		require.NoError(t, err)
		assert.Equal(t, "s3cr3t", cookie.Value)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		// First element is double encoded, as the backend does for
		// calendar lists; the second is a plain object.
		_, _ = io.WriteString(w, `[
			"{\"message_id\": 11, \"email\": \"ada@example.com\", \"hour\": 9, \"minute\": 5, \"text\": \"<p>hi</p>\", \"future\": true, \"candelete\": true}",
			{"message_id": "12", "email": "bob@example.com", "hour": 17, "minute": 30, "text": "later", "future": false, "candelete": 0}
		]`)
	})

	c := newTestClient(t, mux)
	msgs, err := c.DayMessages(context.Background(), 2024, time.February, 29)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, model.DayMessage{
		ID:          11,
		Counterpart: "ada@example.com",
		DeliveryAt:  time.Date(2024, time.February, 29, 9, 5, 0, 0, time.UTC),
		Body:        "<p>hi</p>",
		Future:      true,
		Deletable:   true,
	}, msgs[0])
	assert.Equal(t, int64(12), msgs[1].ID)
	assert.False(t, msgs[1].Deletable)
	assert.Equal(t, 17, msgs[1].DeliveryAt.Hour())
}

func TestDayMessagesSkipsMalformedEntries(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"email": "no-id@example.com", "hour": 1, "minute": 1},
			{"message_id": 2, "hour": 1, "minute": 1},
			{"message_id": 3, "email": "x@example.com", "hour": 25, "minute": 0},
			"not json",
			42,
			{"message_id": 4, "email": "ok@example.com", "hour": 8, "minute": 0}
		]`)
	}))

	msgs, err := c.DayMessages(context.Background(), 2024, time.March, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(4), msgs[0].ID)
}

func TestDayMessagesEmptyDay(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/calendar/1/0/2025", r.URL.Path)
		_, _ = io.WriteString(w, `[]`)
	}))

	msgs, err := c.DayMessages(context.Background(), 2025, time.January, 1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDayMessagesRejectsNonList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error": true}`)
	}))

	_, err := c.DayMessages(context.Background(), 2025, time.January, 1)
	assert.Error(t, err)
}

func TestWithdraw(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lottery/message/delete/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = io.WriteString(w, `{"message_id": 7}`)
	})
	mux.HandleFunc("/api/lottery/message/delete/8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message_id": -1}`)
	})

	c := newTestClient(t, mux)
	require.NoError(t, c.Withdraw(context.Background(), 7))

	err := c.Withdraw(context.Background(), 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWithdrawRejected))
}

func TestAuthAndNotFoundErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/message/received", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/message/sent/99", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/api/message/draft/all", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message": "Message to draft cannot be empty"}`)
	})

	c := newTestClient(t, mux)

	_, err := c.Received(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))

	_, err = c.OpenSent(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.Drafts(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestRetriesThrottledRequests(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `[{"id": 1, "email": "a@example.com"}]`)
	}))

	recipients, err := c.Recipients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Recipient{{ID: 1, Email: "a@example.com"}}, recipients)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesGiveUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), WithMaxRetries(2))

	_, err := c.Recipients(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryHonoursContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Recipients(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestMailboxLists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/message/received", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `["{\"sender_id\": 3, \"firstname\": \"Ada\", \"lastname\": \"Lovelace\", \"id_message\": 21, \"text\": \"hello\", \"email\": \"ada@example.com\"}"]`)
	})
	mux.HandleFunc("/api/message/sent", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"recipient_id": 4, "firstname": "Bob", "lastname": "", "id_message": 22, "text": "yo", "email": "bob@example.com"}]`)
	})

	c := newTestClient(t, mux)

	received, err := c.Received(context.Background())
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, model.MailboxEntry{
		ID:            21,
		Folder:        model.FolderReceived,
		CounterpartID: 3,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		Text:          "hello",
	}, received[0])
	assert.Equal(t, "Ada Lovelace", received[0].DisplayName())

	sent, err := c.Sent(context.Background())
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, model.FolderSent, sent[0].Folder)
	assert.Equal(t, int64(4), sent[0].CounterpartID)
	assert.Equal(t, "Bob", sent[0].DisplayName())
}

func TestOpenMarkReadAndDelete(t *testing.T) {
	var marked, deleted atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/message/received/5", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"text": "<b>body</b>", "media": "cat.png"}`)
	})
	mux.HandleFunc("/api/message/read_message/5", func(w http.ResponseWriter, r *http.Request) {
		marked.Store(true)
	})
	mux.HandleFunc("/api/message/5", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		deleted.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	body, err := c.OpenReceived(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, &model.MessageBody{ID: 5, Text: "<b>body</b>", Media: "cat.png"}, body)

	require.NoError(t, c.MarkRead(ctx, 5))
	assert.True(t, marked.Load())

	require.NoError(t, c.DeleteReceived(ctx, 5))
	assert.True(t, deleted.Load())
}

func TestSendPostsForm(t *testing.T) {
	var got url.Values
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/message/", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		got = r.PostForm
		_, _ = io.WriteString(w, `{"message sent": true}`)
	}))

	err := c.Send(context.Background(), model.Outgoing{
		Text:         "see you",
		DeliveryAt:   time.Date(2030, time.May, 4, 18, 45, 0, 0, time.UTC),
		RecipientIDs: []int64{3, 9},
		DraftID:      12,
	})
	require.NoError(t, err)

	assert.Equal(t, "see you", got.Get("text"))
	assert.Equal(t, "2030-05-04T18:45", got.Get("delivery_date"))
	assert.Equal(t, []string{"3", "9"}, got["recipient"])
	assert.Equal(t, "12", got.Get("draft_id"))
}

func TestDrafts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/message/draft/all", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"message_id": 1, "text": "one", "recipient": 3}, {"text": "no id"}]`)
	})
	mux.HandleFunc("/api/message/draft/1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			return
		}
		_, _ = io.WriteString(w, `{"text": "one", "recipient": 3}`)
	})
	mux.HandleFunc("/api/message/draft", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "draft text", r.PostForm.Get("text"))
		_, _ = io.WriteString(w, `{"message_id": 44}`)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	drafts, err := c.Drafts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Draft{{ID: 1, Text: "one", RecipientID: 3}}, drafts)

	d, err := c.Draft(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &model.Draft{ID: 1, Text: "one", RecipientID: 3}, d)

	id, err := c.SaveDraft(ctx, "draft text")
	require.NoError(t, err)
	assert.Equal(t, int64(44), id)

	require.NoError(t, c.DeleteDraft(ctx, 1))
}

func TestUser(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/3", r.URL.Path)
		_, _ = io.WriteString(w, `{"email": "ada@example.com", "firstname": "Ada", "lastname": "Lovelace"}`)
	}))

	u, err := c.User(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, &model.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"}, u)
}

func TestNoSessionSendsNoCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Cookies())
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "session", "")
	_, err := c.Recipients(context.Background())
	require.NoError(t, err)
}
