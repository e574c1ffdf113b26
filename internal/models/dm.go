package models

import "time"

// DMThread is an ephemeral two-party conversation scoped to one event.
// MessageCount never exceeds the fixed exchange budget; the guarded
// increment lives at the storage boundary.
type DMThread struct {
	ID             string    `db:"id" json:"id"`
	EventID        string    `db:"event_id" json:"event_id"`
	ParticipantA   string    `db:"participant_a" json:"participant_a"`
	ParticipantB   string    `db:"participant_b" json:"participant_b"`
	MessageCount   int       `db:"message_count" json:"message_count"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether viewerID is one of the thread's two sides.
func (t DMThread) HasParticipant(viewerID string) bool {
	return viewerID != "" && (t.ParticipantA == viewerID || t.ParticipantB == viewerID)
}

// DMMessage is a single message inside a thread.
type DMMessage struct {
	ID        string    `db:"id" json:"id"`
	ThreadID  string    `db:"thread_id" json:"thread_id"`
	SenderID  string    `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
