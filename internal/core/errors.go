package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNoToken is returned when the auth collaborator has no access token
	ErrNoToken = errors.New("no access token available")
	// ErrUnauthorized is returned when the token is missing or rejected (401)
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("not found")
	// ErrTooManyRequests is returned for 429 responses
	ErrTooManyRequests = errors.New("too many requests")
	// ErrBadRequest is returned for any other 4xx response
	ErrBadRequest = errors.New("bad request")
	// ErrServer is returned for 5xx responses
	ErrServer = errors.New("server error")
	// ErrTransport is returned when the request never produced a response
	ErrTransport = errors.New("transport error")
	// ErrDecode is returned for malformed payloads
	ErrDecode = errors.New("decode error")
)

// APIError carries the HTTP detail of a failed remote call. Its Kind is one of the sentinel errors above.
type APIError struct {
	Op         string
	Status     int
	Message    string
	RetryAfter time.Duration
	Kind       error
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindForStatus maps an HTTP status to an error kind; nil for 2xx/3xx.
func KindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusTooManyRequests:
		return ErrTooManyRequests
	case status >= 400 && status < 500:
		return ErrBadRequest
	case status >= 500:
		return ErrServer
	}
	return nil
}

// IsAuth reports whether err means the caller must re-authenticate.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoToken)
}

// IsPausePaging reports whether paging should stop for the session (rate limited or server failure).
func IsPausePaging(err error) bool {
	return errors.Is(err, ErrTooManyRequests) || errors.Is(err, ErrServer)
}

// IsClientError reports whether err is a 4xx response of any subtype.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTooManyRequests) || errors.Is(err, ErrBadRequest)
}
