package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"event-photo-service/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

// EventRepository abstracts event persistence.
type EventRepository interface {
	CreateEvent(ctx context.Context, event models.Event) (models.Event, error)
	GetEvent(ctx context.Context, eventID string) (models.Event, error)
}

// EventRepo is a sqlx implementation of EventRepository.
type EventRepo struct {
	db *sqlx.DB
}

// NewEventRepo constructs an EventRepo.
func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{db: db}
}

// CreateEvent stores the event and its allow-list and membership rows
// atomically.
func (r *EventRepo) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Event{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.Event
	if err = tx.QueryRowxContext(ctx, `INSERT INTO events (id, title, owner_id, starts_at, ends_at, private, share_token)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, title, owner_id, starts_at, ends_at, private, share_token, created_at`,
		event.ID, event.Title, event.OwnerID, event.StartsAt, event.EndsAt, event.Private, event.ShareToken).
		StructScan(&created); err != nil {
		return models.Event{}, err
	}

	for _, viewerID := range event.AllowList {
		if _, err = tx.ExecContext(ctx, `INSERT INTO event_allowlist (event_id, viewer_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, created.ID, viewerID); err != nil {
			return models.Event{}, err
		}
	}
	for _, viewerID := range event.Members {
		if _, err = tx.ExecContext(ctx, `INSERT INTO event_members (event_id, viewer_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, created.ID, viewerID); err != nil {
			return models.Event{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Event{}, err
	}

	created.AllowList = event.AllowList
	created.Members = event.Members
	return created, nil
}

// GetEvent fetches an event with its allow-list and membership set. A nil
// slice on the returned event means the event defines no such list.
func (r *EventRepo) GetEvent(ctx context.Context, eventID string) (models.Event, error) {
	var event models.Event
	err := r.db.GetContext(ctx, &event, `SELECT id, title, owner_id, starts_at, ends_at, private, share_token, created_at FROM events WHERE id=$1`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, ErrEventNotFound
	}
	if err != nil {
		return models.Event{}, err
	}

	var allowList []string
	if err := r.db.SelectContext(ctx, &allowList, `SELECT viewer_id FROM event_allowlist WHERE event_id=$1 ORDER BY viewer_id`, eventID); err != nil {
		return models.Event{}, err
	}
	event.AllowList = allowList

	var members []string
	if err := r.db.SelectContext(ctx, &members, `SELECT viewer_id FROM event_members WHERE event_id=$1 ORDER BY viewer_id`, eventID); err != nil {
		return models.Event{}, err
	}
	event.Members = members

	return event, nil
}
