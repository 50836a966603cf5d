package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the identity bridge. Each class maps to a distinct
// user-facing behaviour: bad credentials must never be conflated with an
// unreachable backend, and a rejected token must never be conflated with a
// transient outage.
var (
	// ErrInvalidCredentials – backend rejected the email/password pair (401 on login).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRoleNotPermitted – login succeeded upstream but the account's role is
	// outside the set allowed on this portal.
	ErrRoleNotPermitted = errors.New("role not permitted on this portal")

	// ErrTokenRejected – backend returned 401/403 for the stored bearer token
	// during re-hydration. Triggers a forced logout, never a degraded fallback.
	ErrTokenRejected = errors.New("bearer token rejected")

	// ErrBackendUnavailable – connection refused/timeout/DNS failure or a
	// 502/503/504 gateway response. Request-scoped, never fatal to the process.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// BackendError is a backend response that did not yield an identity. Class
// holds the taxonomy sentinel the status maps to (nil for unclassified
// responses, whose Message is passed through to the user verbatim).
type BackendError struct {
	Status  int
	Message string
	Class   error
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

func (e *BackendError) Unwrap() error { return e.Class }
