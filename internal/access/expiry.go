package access

import (
	"time"

	"event-photo-service/internal/models"
)

// IsExpired reports whether the event's validity window has passed at the
// given instant.
//
// An event with an end timestamp is expired once end < now. Without one the
// start timestamp is the sole validity instant: the event never stays valid
// indefinitely. The boundary is strict: an event ending exactly at now is
// not yet expired, one millisecond in the past is.
func IsExpired(event models.Event, now time.Time) (bool, error) {
	if event.EndsAt != nil {
		if event.EndsAt.IsZero() {
			return false, ErrInvalidEventData
		}
		return event.EndsAt.Before(now), nil
	}
	if event.StartsAt.IsZero() {
		return false, ErrInvalidEventData
	}
	return event.StartsAt.Before(now), nil
}
