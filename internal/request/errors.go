package request

import (
	"errors"
	"fmt"
	"net/http"
)

// Default messages used when the backend does not supply one.
const (
	MsgRequestFailed     = "request failed"
	MsgSessionExpired    = "not logged in or session expired"
	MsgBadCredentials    = "invalid username or password"
	MsgPermissionDenied  = "permission denied"
	MsgNetworkError      = "network error"
	MsgMalformedResponse = "malformed response from server"
)

// Error is returned for every failed call: transport failures, non-2xx
// statuses and envelopes carrying a business error code.
type Error struct {
	// Status is the HTTP status, 0 when no response was received.
	Status int
	// Code is the envelope business code, 0 when the failure happened
	// before an envelope could be read.
	Code    int
	Message string
	Method  string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("%s %s: %s (code %d)", e.Method, e.Path, e.Message, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, e.Message, e.Status)
	default:
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403 from the backend.
func IsForbidden(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusForbidden
}

// IsBusiness reports whether err carries a non-success envelope code.
func IsBusiness(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code != 0
}
