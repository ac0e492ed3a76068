package services

import "errors"

// Sentinel errors for explicit error handling
// These errors allow callers to distinguish between different failure modes
// using errors.Is() instead of string matching

var (
	// ErrSessionNotFound indicates no workspace exists for the console session
	ErrSessionNotFound = errors.New("console session not found")

	// ErrSessionExpired indicates the backend credential of the session is gone or expired
	ErrSessionExpired = errors.New("console session expired")

	// ErrUserNotFound indicates the user is not in the loaded roster
	ErrUserNotFound = errors.New("user not found")

	// ErrActionNotFound indicates the action is not in the accumulated history feed
	ErrActionNotFound = errors.New("action not found")

	// ErrMissingUserID indicates a mutation was requested without a user id
	ErrMissingUserID = errors.New("missing user id")

	// ErrForbidden indicates the operator lacks the admin role
	ErrForbidden = errors.New("admin role required")

	// ErrInvalidSeal indicates a sealed credential could not be opened
	ErrInvalidSeal = errors.New("invalid sealed credential")
)
