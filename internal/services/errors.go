package services

import (
	"errors"
	"fmt"
)

// Flow errors surfaced by AuthService. All of them degrade to a redirect
// home at the handler layer; none are retried.
var (
	// ErrNoLoginAttempt means a callback arrived with no attempt in
	// flight.
	ErrNoLoginAttempt = errors.New("no login attempt in session")

	// ErrStateMismatch means the callback state did not equal the stored
	// CSRF token. Details are never shown to the client.
	ErrStateMismatch = errors.New("state parameter mismatch")

	// ErrNotFound is returned by record lookups that matched nothing.
	ErrNotFound = errors.New("record not found")
)

// ProviderError reports an unexpected response from the identity provider:
// a non-2xx status or a body that did not decode.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("provider %s returned a malformed response", e.Endpoint)
}
