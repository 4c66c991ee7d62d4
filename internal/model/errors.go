package model

import "errors"

var (
	// Session related errors
	ErrSessionNotFound = errors.New("session not found")
	ErrAuthRequired    = errors.New("authentication required")
	ErrSessionExpired  = errors.New("session expired")

	// Permission related errors
	ErrMemberOnly = errors.New("unauthorized action: cart functionality is only available for Member users")
	ErrForbidden  = errors.New("forbidden")

	// Order related errors
	ErrOrderNotFound = errors.New("order not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
