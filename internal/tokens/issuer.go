// Package tokens mints capability tokens bound to a single event.
package tokens

import (
	"github.com/google/uuid"

	"event-photo-service/internal/models"
)

// Issuer mints share tokens at event creation time. Validation lives in
// the access engine; the issuer never checks tokens.
type Issuer struct{}

// NewIssuer constructs an Issuer.
func NewIssuer() *Issuer {
	return &Issuer{}
}

// Mint returns a fresh capability bound to the given event id. The token
// is opaque and carries no derivable structure.
func (i *Issuer) Mint(eventID string) models.AccessToken {
	return models.AccessToken{
		Token:   uuid.NewString(),
		EventID: eventID,
	}
}
