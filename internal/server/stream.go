package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/games"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const realtimeHeartbeatInterval = 25 * time.Second

type realtimeEventPayload struct {
	EventType string `json:"event_type"`
	CoupleID  string `json:"couple_id"`
	GameType  string `json:"game_type,omitempty"`
	Resource  string `json:"resource,omitempty"`
	Version   int64  `json:"version,omitempty"`
	Timestamp int64  `json:"timestamp_s"`
}

// handleRealtimeStream serves couple-scoped change events over SSE.
// EventSource cannot set headers, so the token travels as a query param.
func (h *httpHandler) handleRealtimeStream(c *gin.Context) {
	token := c.Query("access_token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("stream token rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	couple, err := h.couples.ForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming_unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream, cleanup := h.realtime.Subscribe(c.Request.Context(), couple.CoupleID)
	defer cleanup()

	heartbeat := time.NewTicker(realtimeHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", realtimeEventHeartbeat)
			flusher.Flush()
		case message, open := <-stream:
			if !open {
				return
			}
			payload, err := json.Marshal(realtimeEventPayload{
				EventType: message.EventType,
				CoupleID:  message.CoupleID,
				GameType:  message.GameType,
				Resource:  message.Resource,
				Version:   message.Version,
				Timestamp: message.Timestamp.Unix(),
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", message.EventType, payload)
			flusher.Flush()
		}
	}
}

// SessionEventPublisher adapts the dispatcher to the games service so
// session writes reach subscribed partners.
type SessionEventPublisher struct {
	Dispatcher *RealtimeDispatcher
}

func (p SessionEventPublisher) PublishSessionChange(coupleID string, gameType games.GameType, version int64) {
	if p.Dispatcher == nil {
		return
	}
	p.Dispatcher.Publish(RealtimeMessage{
		CoupleID:  coupleID,
		EventType: RealtimeEventSessionChanged,
		GameType:  string(gameType),
		Version:   version,
		Timestamp: time.Now().UTC(),
	})
}

// ContentNotifier builds the notification hook shared by the letters,
// albums, and milestones services.
func ContentNotifier(dispatcher *RealtimeDispatcher) func(coupleID, resource string) {
	return func(coupleID, resource string) {
		if dispatcher == nil {
			return
		}
		dispatcher.Publish(RealtimeMessage{
			CoupleID:  coupleID,
			EventType: RealtimeEventContentChanged,
			Resource:  resource,
			Timestamp: time.Now().UTC(),
		})
	}
}
