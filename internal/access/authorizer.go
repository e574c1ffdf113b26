package access

import (
	"crypto/subtle"

	"event-photo-service/internal/models"
)

// ResolveMembership resolves the viewer's relationship to the event from a
// presented capability token and/or viewer identity. Inputs are assumed to
// have passed sanitization already; no injection screening happens here.
//
// Lack of access never produces an error: it resolves to RoleNone so that a
// caller probing for private events learns nothing beyond "nothing
// visible".
func ResolveMembership(event models.Event, token, viewerID string) models.Membership {
	m := models.Membership{EventID: event.ID, ViewerID: viewerID, Role: models.RoleNone}

	if viewerID != "" && viewerID == event.OwnerID {
		m.Role = models.RoleOwner
		return m
	}

	// A token unlocks exactly the event it was minted for, however it was
	// transmitted.
	if TokenMatchesEvent(event, token) {
		m.Role = models.RoleMember
		return m
	}

	if event.Private && event.HasAllowList() {
		if contains(event.AllowList, viewerID) {
			m.Role = models.RoleMember
		}
		return m
	}

	if event.HasMemberSet() {
		if contains(event.Members, viewerID) {
			m.Role = models.RoleMember
		}
		return m
	}

	if event.Private {
		// Private event without an allow-list: owner and token holders
		// only, both handled above.
		return m
	}

	// Open event with no membership set: any resolved or anonymous viewer
	// may join the feed.
	m.Role = models.RoleMember
	return m
}

// TokenMatchesEvent reports whether the presented token is the capability
// minted for this event. Comparison is constant time.
func TokenMatchesEvent(event models.Event, token string) bool {
	if token == "" || event.ShareToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(event.ShareToken)) == 1
}

func contains(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
