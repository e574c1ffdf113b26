// Package access decides, for a given (event, requester, resource) triple,
// whether a read or write may proceed.
package access

import (
	"context"
	"errors"
	"time"

	"event-photo-service/internal/models"
	"event-photo-service/internal/observability"
	"event-photo-service/internal/repositories"
	"event-photo-service/internal/sanitize"
)

// Engine composes sanitization, expiry, membership resolution, and
// visibility filtering into the two entry points the rest of the service
// calls. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	sanitizer *sanitize.Sanitizer
	events    repositories.EventRepository
	posts     repositories.PostRepository
	now       func() time.Time
}

// NewEngine builds an Engine. A nil clock defaults to time.Now.
func NewEngine(sanitizer *sanitize.Sanitizer, events repositories.EventRepository, posts repositories.PostRepository, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{sanitizer: sanitizer, events: events, posts: posts, now: now}
}

// AuthorizeEventAccess sanitizes the identifiers, checks the event's
// validity window, and resolves the caller's membership. Identifier
// rejections and expiry both fail before any membership resolution;
// sanitization failures never reach storage at all.
func (e *Engine) AuthorizeEventAccess(ctx context.Context, eventID, token, viewerID string) (models.Membership, error) {
	cleanEventID, err := e.sanitizer.EventID(eventID)
	if err != nil {
		observability.IncAccessCheck("rejected_input")
		return models.Membership{}, err
	}

	cleanViewerID := ""
	if viewerID != "" {
		cleanViewerID, err = e.sanitizer.ViewerID(viewerID)
		if err != nil {
			observability.IncAccessCheck("rejected_input")
			return models.Membership{}, err
		}
	}

	event, err := e.events.GetEvent(ctx, cleanEventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			observability.IncAccessCheck("not_found")
			return models.Membership{}, ErrEventNotFound
		}
		observability.IncAccessCheck("error")
		return models.Membership{}, err
	}

	expired, err := IsExpired(event, e.now())
	if err != nil {
		observability.IncAccessCheck("error")
		return models.Membership{}, err
	}
	if expired {
		observability.IncAccessCheck("expired")
		return models.Membership{}, ErrEventExpired
	}

	membership := ResolveMembership(event, token, cleanViewerID)
	if membership.Resolved() {
		observability.IncAccessCheck("granted")
	} else {
		observability.IncAccessCheck("denied")
	}
	return membership, nil
}

// FilterFeed authorizes the caller and returns exactly the posts the
// resolved membership may see. An unresolved membership yields an empty
// feed without touching post storage.
func (e *Engine) FilterFeed(ctx context.Context, eventID, token, viewerID string) ([]models.Post, error) {
	membership, err := e.AuthorizeEventAccess(ctx, eventID, token, viewerID)
	if err != nil {
		return nil, err
	}
	if !membership.Resolved() {
		return []models.Post{}, nil
	}

	posts, err := e.posts.GetPostsForEvent(ctx, membership.EventID)
	if err != nil {
		return nil, err
	}
	return FilterVisible(posts, membership), nil
}

// IssueShareGrant returns the event's capability token for QR rendering.
// Only the owner may obtain it, and never past the event's window.
func (e *Engine) IssueShareGrant(ctx context.Context, eventID, viewerID string) (models.AccessToken, error) {
	membership, err := e.AuthorizeEventAccess(ctx, eventID, "", viewerID)
	if err != nil {
		return models.AccessToken{}, err
	}
	if membership.Role != models.RoleOwner {
		// Same shape as a missing event so non-owners cannot confirm the
		// event exists by probing the share endpoint.
		return models.AccessToken{}, ErrEventNotFound
	}

	event, err := e.events.GetEvent(ctx, membership.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return models.AccessToken{}, ErrEventNotFound
		}
		return models.AccessToken{}, err
	}
	return models.AccessToken{Token: event.ShareToken, EventID: event.ID}, nil
}
