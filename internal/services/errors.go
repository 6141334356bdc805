package services

import (
	"errors"
	"fmt"

	"healthchat-backend/internal/authz"
)

// Shared service-level errors. Handlers translate these to HTTP statuses.
var (
	// ErrValidation covers malformed request payloads, including
	// unrecognized role/type/status strings.
	ErrValidation = errors.New("input validation failed")

	// ErrNotFound is returned when the target resource (or the caller's
	// own profile) does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized means the verified identity lacks rights for the
	// operation. Wrap it with denyError so the policy engine's reason code
	// travels with it.
	ErrUnauthorized = errors.New("operation not permitted")
)

// denyError attaches the engine's deny reason to ErrUnauthorized, or maps a
// NotFound deny to ErrNotFound so absent resources and absent profiles look
// the same to the caller.
func denyError(d authz.Decision) error {
	if d.Reason == authz.ReasonNotFound {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s", ErrUnauthorized, d.Reason)
}

// DenyReason extracts the policy reason from an ErrUnauthorized error chain,
// for responses that surface it.
func DenyReason(err error) string {
	var reason string
	if errors.Is(err, ErrUnauthorized) {
		// The reason is the suffix added by denyError.
		msg := err.Error()
		prefix := ErrUnauthorized.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			reason = msg[len(prefix):]
		}
	}
	return reason
}
