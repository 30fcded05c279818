package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/hanabi-server/internal/core"
)

// APIHandlers provides HTTP handlers for hub introspection endpoints.
type APIHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// StatsResponse represents the hub stats response body.
type StatsResponse struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// RoomOnlineResponse represents a room's online count response body.
type RoomOnlineResponse struct {
	RoomID      string `json:"roomId"`
	OnlineCount int    `json:"onlineCount"`
}

// Stats reports live room and connection counts.
// GET /api/stats
func (h *APIHandlers) Stats(c *gin.Context) {
	rooms, connections := h.hub.Stats()
	c.JSON(http.StatusOK, StatsResponse{Rooms: rooms, Connections: connections})
}

// RoomOnline reports the member count of one room. Unknown rooms answer
// with zero rather than 404; an empty room and a missing room are the same
// thing to the hub.
// GET /api/rooms/:roomID/online
func (h *APIHandlers) RoomOnline(c *gin.Context) {
	roomID := c.Param("roomID")
	c.JSON(http.StatusOK, RoomOnlineResponse{
		RoomID:      roomID,
		OnlineCount: h.hub.RoomOnlineCount(roomID),
	})
}
