// Websocket feed handler.
//
// This file exposes the live feed endpoint:
//   - GET /ws/rooms/{id}
//
// The connection is upgraded and handed to a realtime.Session, which sends
// the merged history snapshot followed by the live event stream. Viewing is
// anonymous; pins and posts go through the authenticated REST surface.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/streamverse/superchat-backend/internal/feed"
	"github.com/streamverse/superchat-backend/internal/http/middleware"
	"github.com/streamverse/superchat-backend/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin enforcement happens at the CORS layer in front of this route.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler serves websocket feed sessions for a hub.
type WSHandler struct {
	hub *realtime.Hub
	msg MessageService
	log zerolog.Logger
}

// NewWSHandler builds a websocket handler over the hub and message service.
func NewWSHandler(hub *realtime.Hub, msg MessageService, log zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, msg: msg, log: log}
}

// Serve upgrades the request and runs the session until the viewer leaves.
func (h *WSHandler) Serve(c *gin.Context) {
	roomID := c.Param("id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		middleware.LoggerFrom(c).Warn().Err(err).Str("room_id", roomID).Msg("websocket upgrade failed")
		return
	}

	load := func(ctx context.Context, roomID string) ([]feed.Entry, error) {
		return h.msg.History(ctx, roomID, 0)
	}
	session := realtime.NewSession(conn, h.hub, roomID, load, h.log)
	session.Run(c.Request.Context())
}
