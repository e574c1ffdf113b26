package access

import "event-photo-service/internal/models"

// FilterVisible returns the subset of posts the membership entitles the
// viewer to see. The result preserves input order, never mutates the
// input, and never includes a post from another event regardless of tier.
func FilterVisible(posts []models.Post, m models.Membership) []models.Post {
	visible := make([]models.Post, 0, len(posts))
	if !m.Resolved() {
		// A viewer with no resolved membership sees none of the event's
		// posts, public tier included.
		return visible
	}

	for _, post := range posts {
		if post.EventID != m.EventID {
			continue
		}
		switch post.Visibility {
		case models.VisibilityPublic, models.VisibilityEventOnly:
			visible = append(visible, post)
		case models.VisibilityPrivate:
			if m.ViewerID != "" && post.AuthorID == m.ViewerID {
				visible = append(visible, post)
			}
		}
	}
	return visible
}
