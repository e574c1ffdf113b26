package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"event-photo-service/internal/models"
)

// PostRepository abstracts post persistence. Reads are always scoped to a
// single event.
type PostRepository interface {
	CreatePost(ctx context.Context, post models.Post) (models.Post, error)
	GetPostsForEvent(ctx context.Context, eventID string) ([]models.Post, error)
}

// PostRepo is a sqlx implementation of PostRepository.
type PostRepo struct {
	db *sqlx.DB
}

// NewPostRepo constructs a PostRepo.
func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

// CreatePost stores a post in its event's feed.
func (r *PostRepo) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	var created models.Post
	err := r.db.QueryRowxContext(ctx, `INSERT INTO posts (id, event_id, author_id, visibility, caption, media_url)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, event_id, author_id, visibility, caption, media_url, created_at`,
		post.ID, post.EventID, post.AuthorID, post.Visibility, post.Caption, post.MediaURL).
		StructScan(&created)
	return created, err
}

// GetPostsForEvent returns the event's posts in creation order.
func (r *PostRepo) GetPostsForEvent(ctx context.Context, eventID string) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, `SELECT id, event_id, author_id, visibility, caption, media_url, created_at
        FROM posts WHERE event_id=$1 ORDER BY created_at ASC`, eventID)
	return posts, err
}
