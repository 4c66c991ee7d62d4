package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error describes a failed backend call. Exactly one of Status > 0 or
// Network is meaningful.
type Error struct {
	Status int
	// Message is the server-provided message, when the body carried one.
	Message string
	// Rejected marks a 2xx response whose envelope reported success=false.
	Rejected bool
	Network  bool
	Timeout  bool
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Network && e.Timeout:
		return fmt.Sprintf("backend timeout: %v", e.Err)
	case e.Network:
		return fmt.Sprintf("backend unreachable: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("backend HTTP %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("backend HTTP %d", e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusOf(err) == 401
}

func networkError(err error) *Error {
	out := &Error{Network: true, Err: err}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		out.Timeout = true
	}
	return out
}
