package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflict")
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEmptyRef          = errors.New("empty resource reference")
)

// HTTPError is a non-2xx answer from the service.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: http status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: http status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// Unwrap exposes the error class so callers can use errors.Is(err, ErrNotFound).
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// faultMessage extracts the message from a {"<faultName>": {"message": ...}}
// body, falling back to a trimmed snippet of the raw body.
func faultMessage(body []byte) string {
	var fault map[string]struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &fault); err == nil {
		for _, f := range fault {
			if f.Message != "" {
				return f.Message
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	return msg
}
