package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the token is missing, expired or rejected.
	ErrUnauthorized = errors.New("not authorized, please log in again")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("rejected by server")
)

// HTTPError is a non-2xx response from the server.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is lets callers match on the sentinel for the status class.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
