package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrRequestClosed      = errors.New("request is closed")
	ErrAlreadyDecided     = errors.New("already decided by another action")
	ErrResaleWindowClosed = errors.New("resale window closed")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrInvalidState       = errors.New("invalid state")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
)

// Errorf wraps kind with a formatted detail so callers can match it with errors.Is.
func Errorf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
