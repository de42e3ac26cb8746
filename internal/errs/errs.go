// Package errs contains sentinel errors and error types shared across
// the session, authorization and checkout layers.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated indicates a protected action was attempted without a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrForbidden indicates the authorization guard denied the action
	// before any network call was made.
	ErrForbidden = errors.New("forbidden")

	// ErrSessionExpired indicates the session's expiry passed. Callers
	// surfacing it must also force a logout; expiry is self-enforcing.
	ErrSessionExpired = errors.New("session expired")

	// ErrBusy indicates a mutation is already in flight for the same resource.
	ErrBusy = errors.New("operation already in progress")
)

// AuthError indicates a failed login: bad credentials, an unreachable
// gateway, or a success response missing its token or user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError indicates locally detectable bad input. It never
// reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
