package gateway

import (
	"errors"
	"fmt"
)

// Failure classes returned by the Client. Callers distinguish them with errors.Is/As.
var (
	// ErrTransport indicates the backend could not be reached
	ErrTransport = errors.New("backend unreachable")

	// ErrUnauthorized indicates the backend rejected the session credential (401/403).
	// The session has been cleared when this is returned.
	ErrUnauthorized = errors.New("session rejected by backend")

	// ErrNotAuthenticated indicates no usable credential was present; no request was issued
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidResponse indicates a payload that matches none of the accepted shapes
	ErrInvalidResponse = errors.New("invalid backend response")
)

// ValidationError carries a backend rejection of the submitted data
// (400, 409, 422, or a failed login/registration).
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d): %s", e.Status, e.Message)
}

// APIError carries any other backend failure status
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// Message extracts the human-readable backend message from err, if any
func Message(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var aerr *APIError
	if errors.As(err, &aerr) {
		return aerr.Message
	}
	return ""
}

// outcome labels err for metrics
func outcome(err error) string {
	var verr *ValidationError
	var aerr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotAuthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &aerr):
		return "api_error"
	default:
		return "error"
	}
}
