package notifications

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized  = errors.New("notifications: unauthorized")
	ErrInvalidDomain = errors.New("notifications: invalid domain descriptor")
	ErrDecode        = errors.New("notifications: malformed response")
)

// StatusError is returned for non-2xx responses from the REST API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("notifications: %s %s: unexpected HTTP status %d", e.Method, e.Path, e.StatusCode)
}

// Is lets a 401 StatusError match ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == 401
}
