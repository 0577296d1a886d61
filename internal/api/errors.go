package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound is returned when the backend answers 404.
	ErrNotFound = errors.New("not found")

	// ErrWithdrawRejected is returned when the backend refuses to withdraw
	// a message, typically because it has already been delivered.
	ErrWithdrawRejected = errors.New("withdraw rejected: check the delivery date")
)

// AuthError indicates that the session is missing, expired, or not
// allowed to perform the request.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is an unexpected non-2xx response.
type StatusError struct {
	Code    int
	Method  string
	Path    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d on %s %s", e.Code, e.Method, e.Path)
	}
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.Code, e.Method, e.Path, e.Message)
}

// errorBody is the JSON error shape the backend uses for aborted requests.
type errorBody struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func checkStatus(code int, method, path string, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}

	msg := errorMessage(body)
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = "session missing or expired; run `mailcal session set`"
		}
		return &AuthError{Status: code, Message: msg}
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	}
	return &StatusError{Code: code, Method: method, Path: path, Message: msg}
}

// errorMessage extracts a human readable message from an error response,
// preferring the JSON fields and falling back to a trimmed body.
func errorMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if eb.Description != "" {
			return eb.Description
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if strings.HasPrefix(s, "<") {
		// HTML error pages carry no useful message for a terminal.
		return ""
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
