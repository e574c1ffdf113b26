package access

import "errors"

var (
	// ErrEventNotFound covers both "no such event" and "event you may not
	// know exists". Callers must never be able to tell the two apart.
	ErrEventNotFound = errors.New("event not found")

	// ErrEventExpired means the event's validity window has passed.
	ErrEventExpired = errors.New("event expired")

	// ErrInvalidEventData means the stored event carries timestamps the
	// guard cannot evaluate.
	ErrInvalidEventData = errors.New("invalid event data")
)
