package models

import "time"

// Visibility classifies who may see a post.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityEventOnly Visibility = "event-only"
	VisibilityPrivate   Visibility = "private"
)

// Valid reports whether v is one of the known tiers.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityEventOnly, VisibilityPrivate:
		return true
	}
	return false
}

// Post is a photo post inside exactly one event's feed.
type Post struct {
	ID         string     `db:"id" json:"id"`
	EventID    string     `db:"event_id" json:"event_id"`
	AuthorID   string     `db:"author_id" json:"author_id"`
	Visibility Visibility `db:"visibility" json:"visibility"`
	Caption    string     `db:"caption" json:"caption"`
	MediaURL   string     `db:"media_url" json:"media_url"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// FeedEvent is broadcast through websockets to feed subscribers.
type FeedEvent struct {
	Type string `json:"type"`
	Post *Post  `json:"post,omitempty"`
}
