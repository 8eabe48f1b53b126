package core

import "errors"

// Request-scoped error taxonomy. Only a missing signing secret is fatal,
// and that is enforced at startup, not here.
var (
	ErrAuthInvalid     = errors.New("invalid credential")
	ErrAuthExpired     = errors.New("expired credential")
	ErrValidation      = errors.New("malformed message")
	ErrPeerUnavailable = errors.New("peer unavailable")
	ErrCapacity        = errors.New("capacity violation")
	ErrBackpressure    = errors.New("backpressure")
)

// CodeOf maps taxonomy errors to the wire-level code carried on
// matchingError events.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrAuthInvalid):
		return "auth_invalid"
	case errors.Is(err, ErrAuthExpired):
		return "auth_expired"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrPeerUnavailable):
		return "peer_unavailable"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	default:
		return "internal"
	}
}
