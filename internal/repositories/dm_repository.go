package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"event-photo-service/internal/models"
)

var ErrThreadNotFound = errors.New("dm thread not found")

// DMThreadRepository abstracts DM thread and message persistence.
//
// IncrementMessageCountIfUnderBudget is the only way the message counter
// changes: a single conditional update at the storage boundary, never a
// read followed by a write from the caller's side.
type DMThreadRepository interface {
	CreateOrGetThread(ctx context.Context, eventID, viewerA, viewerB string) (models.DMThread, error)
	GetThread(ctx context.Context, threadID string) (models.DMThread, error)
	ListMessages(ctx context.Context, threadID string) ([]models.DMMessage, error)
	IncrementMessageCountIfUnderBudget(ctx context.Context, threadID string, budget int) (int, bool, error)
	InsertMessage(ctx context.Context, message models.DMMessage) (models.DMMessage, error)
}

// DMThreadRepo is a sqlx implementation of DMThreadRepository.
type DMThreadRepo struct {
	db *sqlx.DB
}

// NewDMThreadRepo constructs a DMThreadRepo.
func NewDMThreadRepo(db *sqlx.DB) *DMThreadRepo {
	return &DMThreadRepo{db: db}
}

// CreateOrGetThread returns the thread between the two viewers within the
// event, creating it on first use. Participants are stored in a canonical
// order so either side resolves the same thread.
func (r *DMThreadRepo) CreateOrGetThread(ctx context.Context, eventID, viewerA, viewerB string) (models.DMThread, error) {
	if viewerA == viewerB {
		return models.DMThread{}, errors.New("cannot open a thread with yourself")
	}
	if viewerB < viewerA {
		viewerA, viewerB = viewerB, viewerA
	}

	var thread models.DMThread
	err := r.db.GetContext(ctx, &thread, `SELECT id, event_id, participant_a, participant_b, message_count, last_activity_at, created_at
        FROM dm_threads WHERE event_id=$1 AND participant_a=$2 AND participant_b=$3`, eventID, viewerA, viewerB)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.DMThread{}, err
	}

	err = r.db.QueryRowxContext(ctx, `INSERT INTO dm_threads (id, event_id, participant_a, participant_b)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (event_id, participant_a, participant_b) DO UPDATE SET event_id = EXCLUDED.event_id
        RETURNING id, event_id, participant_a, participant_b, message_count, last_activity_at, created_at`,
		newThreadID(), eventID, viewerA, viewerB).StructScan(&thread)
	return thread, err
}

// GetThread fetches a thread by id.
func (r *DMThreadRepo) GetThread(ctx context.Context, threadID string) (models.DMThread, error) {
	var thread models.DMThread
	err := r.db.GetContext(ctx, &thread, `SELECT id, event_id, participant_a, participant_b, message_count, last_activity_at, created_at
        FROM dm_threads WHERE id=$1`, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DMThread{}, ErrThreadNotFound
	}
	return thread, err
}

// ListMessages returns the thread's messages in creation order.
func (r *DMThreadRepo) ListMessages(ctx context.Context, threadID string) ([]models.DMMessage, error) {
	var msgs []models.DMMessage
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, thread_id, sender_id, content, created_at
        FROM dm_messages WHERE thread_id=$1 ORDER BY created_at ASC`, threadID)
	return msgs, err
}

// IncrementMessageCountIfUnderBudget bumps the counter only while it is
// under budget and returns the post-update count. The guard and the
// increment are one statement, so two concurrent senders racing at
// budget-1 cannot both get through, and the returned count is exact even
// under contention.
func (r *DMThreadRepo) IncrementMessageCountIfUnderBudget(ctx context.Context, threadID string, budget int) (int, bool, error) {
	var count int
	err := r.db.QueryRowxContext(ctx, `UPDATE dm_threads
        SET message_count = message_count + 1, last_activity_at = NOW()
        WHERE id=$1 AND message_count < $2
        RETURNING message_count`, threadID, budget).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// InsertMessage stores a message. Callers must have already claimed budget
// through IncrementMessageCountIfUnderBudget.
func (r *DMThreadRepo) InsertMessage(ctx context.Context, message models.DMMessage) (models.DMMessage, error) {
	var created models.DMMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO dm_messages (id, thread_id, sender_id, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, thread_id, sender_id, content, created_at`,
		message.ID, message.ThreadID, message.SenderID, message.Content).
		StructScan(&created)
	return created, err
}
