package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"event-photo-service/internal/access"
	"event-photo-service/internal/middleware"
	"event-photo-service/internal/observability"
	"event-photo-service/internal/sanitize"
)

// FeedWebSocketHandler handles live feed subscriptions.
type FeedWebSocketHandler struct {
	hub    *Hub
	engine *access.Engine
}

// NewFeedWebSocketHandler constructs a FeedWebSocketHandler.
func NewFeedWebSocketHandler(hub *Hub, engine *access.Engine) *FeedWebSocketHandler {
	return &FeedWebSocketHandler{hub: hub, engine: engine}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authorizes the caller through the access engine and, on success,
// upgrades the connection and registers it in the event's feed room.
func (h *FeedWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("event-photo-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("X-Share-Token")
	}

	membership, err := h.engine.AuthorizeEventAccess(ctx, c.Param("event_id"), token, middleware.ViewerID(c))
	if err != nil {
		switch {
		case errors.Is(err, sanitize.ErrSecurityViolation),
			errors.Is(err, sanitize.ErrEmpty),
			errors.Is(err, sanitize.ErrTooLong),
			errors.Is(err, sanitize.ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		case errors.Is(err, access.ErrEventExpired):
			c.JSON(http.StatusGone, gin.H{"error": "event expired"})
		case errors.Is(err, access.ErrEventNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "access check failed"})
		}
		return
	}
	if !membership.Resolved() {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		ViewerID:    membership.ViewerID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	eventID := membership.EventID
	h.hub.AddFeedClient(eventID, conn, info)

	observability.IncWSActive("feed")
	observability.IncWSEvent("feed", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.feeds", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsPayload("ws_connect", eventID, info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	// Keep connection alive and clean on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveFeedClient(eventID, conn)
			observability.DecWSActive("feed")
			observability.IncWSEvent("feed", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.feeds", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsPayload("ws_disconnect", eventID, info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("feed", "ws_error")
					_ = observability.PublishEvent(ctx, "ws_events.feeds", observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsPayload("ws_error", eventID, info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
					}, observability.BuildHeaders(requestID, traceID))
				}
				return
			}
		}
	}()
}

func wsPayload(event, eventID string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "feed",
			"resource_id": eventID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"viewer_id": info.ViewerID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
