package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"event-photo-service/internal/access"
	"event-photo-service/internal/middleware"
	"event-photo-service/internal/models"
	"event-photo-service/internal/repositories"
	"event-photo-service/internal/sanitize"
	"event-photo-service/internal/telemetry"
	"event-photo-service/internal/tokens"
	"event-photo-service/internal/ws"
)

// EventHandler manages event and feed endpoints.
type EventHandler struct {
	engine    *access.Engine
	eventRepo repositories.EventRepository
	postRepo  repositories.PostRepository
	issuer    *tokens.Issuer
	hub       *ws.Hub
	audit     *telemetry.AuditEmitter
	joinBase  string
}

// NewEventHandler builds an EventHandler. joinBase is the public URL prefix
// embedded in share links handed to QR rendering.
func NewEventHandler(engine *access.Engine, eventRepo repositories.EventRepository, postRepo repositories.PostRepository, issuer *tokens.Issuer, hub *ws.Hub, audit *telemetry.AuditEmitter, joinBase string) *EventHandler {
	return &EventHandler{
		engine:    engine,
		eventRepo: eventRepo,
		postRepo:  postRepo,
		issuer:    issuer,
		hub:       hub,
		audit:     audit,
		joinBase:  joinBase,
	}
}

// CreateEvent handles POST /events.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	if viewerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "host identity required"})
		return
	}

	var req struct {
		Title     string   `json:"title" binding:"required"`
		StartsAt  string   `json:"starts_at" binding:"required"`
		EndsAt    string   `json:"ends_at"`
		Private   bool     `json:"private"`
		AllowList []string `json:"allow_list"`
		Members   []string `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at must be RFC3339"})
		return
	}
	var endsAt *time.Time
	if req.EndsAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at must be RFC3339"})
			return
		}
		if parsed.Before(startsAt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at precedes starts_at"})
			return
		}
		endsAt = &parsed
	}

	eventID := uuid.NewString()
	grant := h.issuer.Mint(eventID)

	event, err := h.eventRepo.CreateEvent(c.Request.Context(), models.Event{
		ID:         eventID,
		Title:      req.Title,
		OwnerID:    viewerID,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		Private:    req.Private,
		ShareToken: grant.Token,
		AllowList:  req.AllowList,
		Members:    req.Members,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create event"})
		return
	}

	h.emitAudit(c, "INFO", "Event created")
	c.JSON(http.StatusCreated, gin.H{
		"event":       event,
		"share_token": grant.Token,
	})
}

// GetEvent handles GET /events/:event_id and returns the event summary
// together with the caller's resolved role.
func (h *EventHandler) GetEvent(c *gin.Context) {
	membership, err := h.engine.AuthorizeEventAccess(c.Request.Context(), c.Param("event_id"), feedToken(c), middleware.ViewerID(c))
	if err != nil {
		h.respondAccessError(c, err)
		return
	}
	if !membership.Resolved() {
		// Same shape as a missing event so probing cannot confirm
		// existence.
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	event, err := h.eventRepo.GetEvent(c.Request.Context(), membership.EventID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event, "role": membership.Role})
}

// ShareGrant handles GET /events/:event_id/share. Owner only; the token
// and join URL feed the QR rendering done elsewhere.
func (h *EventHandler) ShareGrant(c *gin.Context) {
	grant, err := h.engine.IssueShareGrant(c.Request.Context(), c.Param("event_id"), middleware.ViewerID(c))
	if err != nil {
		h.respondAccessError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Share grant issued")
	c.JSON(http.StatusOK, gin.H{
		"token":    grant.Token,
		"join_url": h.joinBase + "/join?event=" + grant.EventID + "&token=" + grant.Token,
	})
}

// GetFeed handles GET /events/:event_id/feed.
func (h *EventHandler) GetFeed(c *gin.Context) {
	posts, err := h.engine.FilterFeed(c.Request.Context(), c.Param("event_id"), feedToken(c), middleware.ViewerID(c))
	if err != nil {
		h.respondAccessError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CreatePost handles POST /events/:event_id/posts and broadcasts the new
// post to feed subscribers.
func (h *EventHandler) CreatePost(c *gin.Context) {
	membership, err := h.engine.AuthorizeEventAccess(c.Request.Context(), c.Param("event_id"), feedToken(c), middleware.ViewerID(c))
	if err != nil {
		h.respondAccessError(c, err)
		return
	}
	if !membership.Resolved() {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if membership.ViewerID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "posting requires a viewer identity"})
		return
	}

	var req struct {
		Caption    string `json:"caption"`
		MediaURL   string `json:"media_url" binding:"required"`
		Visibility string `json:"visibility"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	visibility := models.Visibility(req.Visibility)
	if req.Visibility == "" {
		visibility = models.VisibilityEventOnly
	}
	if !visibility.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown visibility tier"})
		return
	}

	post, err := h.postRepo.CreatePost(c.Request.Context(), models.Post{
		ID:         uuid.NewString(),
		EventID:    membership.EventID,
		AuthorID:   membership.ViewerID,
		Visibility: visibility,
		Caption:    req.Caption,
		MediaURL:   req.MediaURL,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store post"})
		return
	}

	// Private posts are only ever visible to their author; nothing to
	// broadcast.
	if post.Visibility != models.VisibilityPrivate {
		h.hub.BroadcastPost(post.EventID, post)
	}
	h.emitAudit(c, "INFO", "Post created")
	c.JSON(http.StatusCreated, post)
}

func (h *EventHandler) respondAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sanitize.ErrSecurityViolation):
		h.emitAudit(c, "ERROR", "identifier rejected: security violation")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
	case errors.Is(err, sanitize.ErrInvalidType),
		errors.Is(err, sanitize.ErrEmpty),
		errors.Is(err, sanitize.ErrTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
	case errors.Is(err, access.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, access.ErrEventExpired):
		c.JSON(http.StatusGone, gin.H{"error": "event expired"})
	case errors.Is(err, access.ErrInvalidEventData):
		h.emitAudit(c, "ERROR", "event data failed validation")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "event data invalid"})
	default:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "access check failed"})
	}
}

func (h *EventHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), viewerIDFromContext(c))
}

// feedToken extracts an optional share token from the query string or the
// X-Share-Token header. Both transports unlock exactly the bound event.
func feedToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return c.GetHeader("X-Share-Token")
}
