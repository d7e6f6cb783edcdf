package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the login bridge
var (
	// Startup errors
	ErrConfiguration = errors.New("invalid configuration")

	// Credential errors
	ErrDecryption = errors.New("stored credential could not be decrypted")
	ErrNoToken    = errors.New("token response carried no access token")

	// Provider errors
	ErrUpstream               = errors.New("upstream request failed")
	ErrInsufficientPermission = errors.New("connected user cannot modify all data")
	ErrMissingField           = errors.New("provider payload is missing a required field")
	ErrMissingCustomDomain    = errors.New("custom domain is required")
	ErrInvalidCustomDomain    = errors.New("custom domain is not a valid host label")
	ErrUnknownProvider        = errors.New("unknown provider")

	// Flow errors
	ErrInvalidState      = errors.New("oauth state does not match session")
	ErrAuthorizationDeny = errors.New("authorization denied by provider")
	ErrInvalidIDToken    = errors.New("id token verification failed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// UpstreamError describes a failed call to a provider endpoint. A transport
// failure or timeout has StatusCode 0.
type UpstreamError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned %d %s", e.Op, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s failed", e.Op, e.URL)
}

// Unwrap exposes both the ErrUpstream sentinel and the transport cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Code maps an error to the short code placed on the error redirect.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrAuthorizationDeny):
		return "access_denied"
	case errors.Is(err, ErrDecryption):
		return "credential_unreadable"
	case errors.Is(err, ErrUpstream):
		return "provider_unavailable"
	case errors.Is(err, ErrMissingCustomDomain), errors.Is(err, ErrInvalidCustomDomain):
		return "invalid_custom_domain"
	case errors.Is(err, ErrInvalidIDToken):
		return "invalid_id_token"
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return "session_expired"
	default:
		return "login_failed"
	}
}
