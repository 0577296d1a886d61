package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcal/internal/credential"
	"github.com/nhle/mailcal/internal/export"
	"github.com/nhle/mailcal/internal/model"
	settingsview "github.com/nhle/mailcal/internal/ui/config"
)

var testNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.Local)

type testEnv struct {
	srv  *httptest.Server
	ring keyring.Keyring
	dir  string

	mu      sync.Mutex
	cookies []string
	form    url.Values
}

// newTestEnv points the configuration at a fake backend through the
// environment and isolates the store, log and keyring.
func newTestEnv(t *testing.T, mux *http.ServeMux) *testEnv {
	t.Helper()
	env := &testEnv{
		ring: keyring.NewArrayKeyring(nil),
		dir:  t.TempDir(),
	}
	env.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.mu.Lock()
		if c, err := r.Cookie("session"); err == nil {
			env.cookies = append(env.cookies, c.Value)
		}
		env.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(env.srv.Close)

	t.Setenv("MAILCAL_SERVER_BASE_URL", env.srv.URL)
	t.Setenv("MAILCAL_SERVER_MAX_RETRIES", "0")
	t.Setenv("MAILCAL_STORE_PATH", filepath.Join(env.dir, "state.db"))
	t.Setenv("MAILCAL_LOG_FILE", filepath.Join(env.dir, "mailcal.log"))
	t.Setenv(credential.SessionEnv, "tok")
	return env
}

func (e *testEnv) newApp() *App {
	return &App{
		ConfigPath: filepath.Join(e.dir, "config.yaml"),
		openSessions: func() (*credential.Sessions, error) {
			return credential.NewSessions(e.ring), nil
		},
		now: func() time.Time { return testNow },
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(e.newApp())

	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", filepath.Join(e.dir, "config.yaml")}, args...))

	err := cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// mustData runs args and returns the "data" value of the JSON envelope.
func (e *testEnv) mustData(t *testing.T, args ...string) any {
	t.Helper()
	stdout, stderr, err := e.run(t, args...)
	require.NoError(t, err, "mailcal %v\nstderr: %s", args, stderr)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &envelope), stdout)
	data, ok := envelope["data"]
	require.True(t, ok, "missing data key in %s", stdout)
	return data
}

func backendMux(env **testEnv) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/calendar/29/1/2024", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `["{\"message_id\": 11, \"email\": \"ada@example.com\", \"hour\": 9, \"minute\": 5, \"text\": \"<p>hi</p>\", \"future\": false, \"candelete\": false}"]`)
	})
	mux.HandleFunc("/api/lottery/message/delete/7", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message_id": 7}`)
	})
	mux.HandleFunc("/api/lottery/message/delete/8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message_id": -1}`)
	})
	mux.HandleFunc("/api/message/received", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"sender_id": 3, "firstname": "Ada", "lastname": "Lovelace", "id_message": 21, "text": "hello", "email": "ada@example.com"}]`)
	})
	mux.HandleFunc("/api/message/received/21", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"text": "<p>Hello &amp; welcome</p>"}`)
	})
	mux.HandleFunc("/api/message/read_message/21", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/api/message/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		(*env).mu.Lock()
		(*env).form = r.PostForm
		(*env).mu.Unlock()
		_, _ = io.WriteString(w, `{"message sent": true}`)
	})
	mux.HandleFunc("/api/message/draft", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message_id": 44}`)
	})
	mux.HandleFunc("/user/get_recipients", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id": 3, "email": "ada@example.com"}, {"id": 9, "email": "bob@example.com"}]`)
	})
	return mux
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	var env *testEnv
	env = newTestEnv(t, backendMux(&env))
	return env
}

func TestCalendarPrintsGrid(t *testing.T) {
	env := setup(t)

	stdout, _, err := env.run(t, "calendar", "2024-02")
	require.NoError(t, err)
	assert.Contains(t, stdout, "February 2024")
	assert.Contains(t, stdout, "Su Mo Tu We Th Fr Sa")
	assert.Contains(t, stdout, "29")

	_, _, err = env.run(t, "calendar", "02/2024")
	assert.Error(t, err)
}

func TestDay(t *testing.T) {
	env := setup(t)

	data := env.mustData(t, "day", "2024-02-29").(map[string]any)
	assert.Equal(t, "2024-02-29", data["date"])
	msgs := data["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, float64(11), msgs[0].(map[string]any)["id"])
	assert.Equal(t, []string{"tok"}, env.cookies)

	_, stderr, err := env.run(t, "day", "29-02-2024")
	require.Error(t, err)
	assert.Contains(t, stderr, "expected YYYY-MM-DD")
}

func TestWithdrawRecordsActivity(t *testing.T) {
	env := setup(t)

	data := env.mustData(t, "withdraw", "7").(map[string]any)
	assert.Equal(t, true, data["withdrawn"])

	_, stderr, err := env.run(t, "withdraw", "8")
	require.Error(t, err)
	assert.Contains(t, stderr, "withdraw rejected")

	acts := env.mustData(t, "activity").([]any)
	require.Len(t, acts, 1)
	assert.Equal(t, "withdrawn", acts[0].(map[string]any)["kind"])
	assert.Equal(t, float64(7), acts[0].(map[string]any)["message_id"])
}

func TestInboxAndOpen(t *testing.T) {
	env := setup(t)

	entries := env.mustData(t, "inbox").([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "ada@example.com", entries[0].(map[string]any)["email"])

	msg := env.mustData(t, "open", "21").(map[string]any)
	assert.Equal(t, "Hello & welcome", msg["plain_text"])
	assert.Equal(t, "received", msg["folder"])
}

func TestSend(t *testing.T) {
	env := setup(t)

	env.mustData(t, "send", "--to", "3", "--to", "9", "--at", "2030-05-04 18:45", "--text", "see you")
	assert.Equal(t, "<p>see you</p>", env.form.Get("text"))
	assert.Equal(t, "2030-05-04T18:45", env.form.Get("delivery_date"))
	assert.Equal(t, []string{"3", "9"}, env.form["recipient"])

	_, stderr, err := env.run(t, "send", "--to", "3", "--at", "2020-01-01 10:00", "--text", "late")
	require.Error(t, err)
	assert.Contains(t, stderr, "past")
}

func TestExport(t *testing.T) {
	env := setup(t)
	path := filepath.Join(env.dir, "out", "msg.eml")

	data := env.mustData(t, "export", "21", "-o", path).(map[string]any)
	assert.Equal(t, path, data["path"])

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	parsed, err := export.ReadEML(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, parsed.From)
	assert.Equal(t, "Hello & welcome", parsed.TextBody)

	_, _, err = env.run(t, "export", "99", "-o", path)
	assert.Error(t, err)
}

func TestDraftSave(t *testing.T) {
	env := setup(t)

	data := env.mustData(t, "draft", "save", "--text", "later")
	assert.Equal(t, float64(44), data.(map[string]any)["message_id"])

	_, _, err := env.run(t, "draft", "save", "--text", "   ")
	assert.Error(t, err)
}

func TestSessionSetUsesKeyring(t *testing.T) {
	env := setup(t)
	t.Setenv(credential.SessionEnv, "")

	env.mustData(t, "session", "set", "abc")
	env.mustData(t, "inbox")
	assert.Equal(t, []string{"abc"}, env.cookies)

	env.mustData(t, "session", "clear")
	_, err := credential.NewSessions(env.ring).Get(env.srv.URL)
	assert.ErrorIs(t, err, credential.ErrNoSession)
}

func TestRecipientsFallBackToCache(t *testing.T) {
	env := setup(t)

	recipients := env.mustData(t, "recipients").([]any)
	require.Len(t, recipients, 2)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	t.Setenv("MAILCAL_SERVER_BASE_URL", down.URL)

	cached := env.mustData(t, "recipients").([]any)
	require.Len(t, cached, 2)
	assert.Equal(t, "ada@example.com", cached[0].(map[string]any)["email"])
}

func TestSaveSettings(t *testing.T) {
	env := setup(t)
	t.Setenv("MAILCAL_SERVER_BASE_URL", "")
	app := env.newApp()
	require.NoError(t, app.setup())
	defer app.teardown()

	detail, err := app.saveSettings(context.Background(), settingsview.Settings{
		BaseURL:         env.srv.URL,
		Session:         "fresh",
		PollIntervalSec: 45,
		LogLevel:        "debug",
	})
	require.NoError(t, err)
	assert.Contains(t, detail, "2 recipients reachable")
	assert.Equal(t, []string{"fresh"}, env.cookies)

	stored, err := credential.NewSessions(env.ring).Get(env.srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored)

	cfg, err := model.LoadConfig(app.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, env.srv.URL, cfg.Server.BaseURL)
	assert.Equal(t, 45, cfg.Display.PollIntervalSec)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSaveSettingsFailedTestSavesNothing(t *testing.T) {
	env := setup(t)
	app := env.newApp()
	require.NoError(t, app.setup())
	defer app.teardown()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer down.Close()

	_, err := app.saveSettings(context.Background(), settingsview.Settings{
		BaseURL:         down.URL,
		Session:         "bad",
		PollIntervalSec: 45,
		LogLevel:        "info",
	})
	require.Error(t, err)

	_, err = credential.NewSessions(env.ring).Get(down.URL)
	assert.ErrorIs(t, err, credential.ErrNoSession)
	_, err = os.Stat(app.ConfigPath)
	assert.True(t, os.IsNotExist(err))
}
