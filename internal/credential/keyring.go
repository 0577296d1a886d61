package credential

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "mailcal"

	// SessionEnv overrides the stored session cookie when set.
	SessionEnv = "MAILCAL_SESSION"
)

// ErrNoSession is returned when no session is stored for a backend.
var ErrNoSession = errors.New("no session stored")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailcal/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailcal-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Sessions stores backend session cookies, one per backend host.
type Sessions struct {
	ring keyring.Keyring
}

// Open returns Sessions backed by the system keyring.
func Open() (*Sessions, error) {
	ring, err := openKeyring()
	if err != nil {
		return nil, err
	}
	return &Sessions{ring: ring}, nil
}

// NewSessions wraps an existing keyring.
func NewSessions(ring keyring.Keyring) *Sessions {
	return &Sessions{ring: ring}
}

// SessionKey returns the keyring key for the backend at baseURL.
func SessionKey(baseURL string) string {
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return "session-" + strings.ToLower(host)
}

// Get retrieves the session stored for baseURL.
func (s *Sessions) Get(baseURL string) (string, error) {
	key := SessionKey(baseURL)
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores the session for baseURL.
func (s *Sessions) Set(baseURL, value string) error {
	key := SessionKey(baseURL)
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "mailcal session for " + baseURL,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Clear removes the session for baseURL. Clearing a missing session is
// not an error.
func (s *Sessions) Clear(baseURL string) error {
	key := SessionKey(baseURL)
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Resolve returns the session to use for baseURL: the MAILCAL_SESSION
// environment variable if set, else the stored one. A nil Sessions or a
// missing entry yields "" and no error.
func Resolve(s *Sessions, baseURL string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(SessionEnv)); v != "" {
		return v, nil
	}
	if s == nil {
		return "", nil
	}
	v, err := s.Get(baseURL)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	return v, err
}
