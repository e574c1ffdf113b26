package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"event-photo-service/internal/models"
	"event-photo-service/internal/observability"
)

// Hub maintains active feed rooms, one per event.
type Hub struct {
	feedRooms    map[string]map[*websocket.Conn]bool
	feedConnInfo map[string]map[*websocket.Conn]ConnInfo
	mu           sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		feedRooms:    make(map[string]map[*websocket.Conn]bool),
		feedConnInfo: make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddFeedClient registers a websocket connection to an event's feed room.
func (h *Hub) AddFeedClient(eventID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.feedRooms[eventID]; !ok {
		h.feedRooms[eventID] = make(map[*websocket.Conn]bool)
	}
	h.feedRooms[eventID][conn] = true
	if _, ok := h.feedConnInfo[eventID]; !ok {
		h.feedConnInfo[eventID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.feedConnInfo[eventID][conn] = info
}

// RemoveFeedClient removes a feed websocket connection.
func (h *Hub) RemoveFeedClient(eventID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.feedRooms[eventID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.feedRooms, eventID)
		}
	}
	if infos, ok := h.feedConnInfo[eventID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.feedConnInfo, eventID)
		}
	}
}

// BroadcastPost sends a new post to all subscribers of its event's feed.
func (h *Hub) BroadcastPost(eventID string, post models.Post) {
	conns := h.feedConns(eventID)

	event := models.FeedEvent{Type: "post", Post: &post}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveFeedClient(eventID, conn)
			h.publishWSError(eventID, conn, err)
		}
	}
}

// feedConns snapshots a room's connections. The room map itself mutates
// under the write lock, so iteration happens over the copy, never the
// live map.
func (h *Hub) feedConns(eventID string) []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(h.feedRooms[eventID]))
	for conn := range h.feedRooms[eventID] {
		conns = append(conns, conn)
	}
	return conns
}

func (h *Hub) publishWSError(eventID string, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(eventID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "feed",
			"resource_id": eventID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"viewer_id": info.ViewerID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.feeds", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("feed", "ws_error")
}

func (h *Hub) getConnInfo(eventID string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	infos, ok := h.feedConnInfo[eventID]
	if !ok {
		return ConnInfo{}, false
	}
	info, ok := infos[conn]
	return info, ok
}
