package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"event-photo-service/internal/access"
	"event-photo-service/internal/dm"
	"event-photo-service/internal/middleware"
	"event-photo-service/internal/repositories"
	"event-photo-service/internal/sanitize"
	"event-photo-service/internal/telemetry"
)

// DMHandler manages direct-message endpoints.
type DMHandler struct {
	engine     *access.Engine
	ledger     *dm.Ledger
	threadRepo repositories.DMThreadRepository
	sanitizer  *sanitize.Sanitizer
	audit      *telemetry.AuditEmitter
}

// NewDMHandler builds a DMHandler.
func NewDMHandler(engine *access.Engine, ledger *dm.Ledger, threadRepo repositories.DMThreadRepository, sanitizer *sanitize.Sanitizer, audit *telemetry.AuditEmitter) *DMHandler {
	return &DMHandler{
		engine:     engine,
		ledger:     ledger,
		threadRepo: threadRepo,
		sanitizer:  sanitizer,
		audit:      audit,
	}
}

// StartThread handles POST /dm/threads: create-or-get the thread between
// the caller and one other event participant.
func (h *DMHandler) StartThread(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	if viewerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "viewer identity required"})
		return
	}

	var req struct {
		EventID       string `json:"event_id" binding:"required"`
		ParticipantID any    `json:"participant_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// participant_id arrives from an untrusted client; reject non-string
	// shapes and injection payloads before any lookup.
	participantID, err := h.sanitizer.Value(req.ParticipantID)
	if err != nil {
		h.respondSanitizeError(c, err)
		return
	}

	membership, err := h.engine.AuthorizeEventAccess(c.Request.Context(), req.EventID, feedToken(c), viewerID)
	if err != nil {
		h.respondAccessError(c, err)
		return
	}
	if !membership.Resolved() {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	thread, err := h.threadRepo.CreateOrGetThread(c.Request.Context(), membership.EventID, membership.ViewerID, participantID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open thread"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"thread":    thread,
		"remaining": dm.MessageBudget - thread.MessageCount,
	})
}

// ListMessages handles GET /dm/threads/:thread_id/messages.
func (h *DMHandler) ListMessages(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	threadID, err := h.sanitizer.EventID(c.Param("thread_id"))
	if err != nil {
		h.respondSanitizeError(c, err)
		return
	}

	thread, err := h.threadRepo.GetThread(c.Request.Context(), threadID)
	if err != nil {
		if errors.Is(err, repositories.ErrThreadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load thread"})
		return
	}
	if !thread.HasParticipant(viewerID) {
		h.emitAudit(c, "ERROR", "not a thread participant")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a thread participant"})
		return
	}

	msgs, err := h.threadRepo.ListMessages(c.Request.Context(), threadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":  msgs,
		"count":     thread.MessageCount,
		"remaining": dm.MessageBudget - thread.MessageCount,
	})
}

// SendMessage handles POST /dm/threads/:thread_id/messages through the
// budget ledger.
func (h *DMHandler) SendMessage(c *gin.Context) {
	viewerID := middleware.ViewerID(c)
	if viewerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "viewer identity required"})
		return
	}

	threadID, err := h.sanitizer.EventID(c.Param("thread_id"))
	if err != nil {
		h.respondSanitizeError(c, err)
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.ledger.TrySend(c.Request.Context(), threadID, viewerID, req.Content)
	if err != nil {
		h.respondLedgerError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "DM sent")
	c.JSON(http.StatusCreated, receipt)
}

func (h *DMHandler) respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dm.ErrEmptyContent), errors.Is(err, dm.ErrContentTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, dm.ErrThreadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
	case errors.Is(err, dm.ErrForbidden):
		h.emitAudit(c, "ERROR", "not a thread participant")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a thread participant"})
	case errors.Is(err, dm.ErrBudgetExceeded):
		h.emitAudit(c, "ERROR", "dm budget exhausted")
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "message limit reached",
			"hint":  dm.BudgetExceededHint,
		})
	default:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
	}
}

func (h *DMHandler) respondSanitizeError(c *gin.Context, err error) {
	if errors.Is(err, sanitize.ErrSecurityViolation) {
		h.emitAudit(c, "ERROR", "identifier rejected: security violation")
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
}

func (h *DMHandler) respondAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sanitize.ErrSecurityViolation),
		errors.Is(err, sanitize.ErrInvalidType),
		errors.Is(err, sanitize.ErrEmpty),
		errors.Is(err, sanitize.ErrTooLong):
		h.respondSanitizeError(c, err)
	case errors.Is(err, access.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	case errors.Is(err, access.ErrEventExpired):
		c.JSON(http.StatusGone, gin.H{"error": "event expired"})
	default:
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "access check failed"})
	}
}

func (h *DMHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), viewerIDFromContext(c))
}
