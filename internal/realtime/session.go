package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/streamverse/superchat-backend/internal/feed"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Frame is the wire envelope sent to a viewer. A session sends exactly one
// snapshot frame (the merged history, loading phase) followed by a stream of
// event frames (live phase).
type Frame struct {
	Type    string       `json:"type"` // "snapshot" | event type
	RoomID  string       `json:"room_id"`
	Entries []feed.Entry `json:"entries,omitempty"` // snapshot only
	Entry   *feed.Entry  `json:"entry,omitempty"`   // events only
}

// HistoryLoader loads the merged ordered history of a room. The session calls
// it once, between subscribing and going live, so no event can fall into the
// gap between snapshot and stream.
type HistoryLoader func(ctx context.Context, roomID string) ([]feed.Entry, error)

// Session pushes one room's feed to one websocket viewer. The viewer-side
// state machine is Loading -> Live: history snapshot first, then a stream of
// events. The session keeps its own timeline ordered by (createdAt, id), so
// a viewer can ask for a "resync" at any time and receive the current
// ordered view without a reconnect.
type Session struct {
	conn   *websocket.Conn
	hub    *Hub
	roomID string
	load   HistoryLoader
	log    zerolog.Logger
	tl     *feed.Timeline
}

// NewSession wraps an upgraded websocket connection.
func NewSession(conn *websocket.Conn, hub *Hub, roomID string, load HistoryLoader, log zerolog.Logger) *Session {
	return &Session{conn: conn, hub: hub, roomID: roomID, load: load, log: log}
}

// Run serves the session until the context is cancelled, the viewer
// disconnects, or the subscriber is dropped for falling behind. It blocks.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()

	// Subscribe before loading history: events that race the load are
	// buffered and applied after the snapshot. The timeline's keyed insert
	// makes any overlap between snapshot and buffered events harmless.
	events, cancel := s.hub.Subscribe(s.roomID)
	defer cancel()

	entries, err := s.load(ctx, s.roomID)
	if err != nil {
		s.log.Error().Err(err).Str("room_id", s.roomID).Msg("feed history load failed")
		return
	}
	s.tl = feed.NewTimeline(entries)
	if !s.write(Frame{Type: "snapshot", RoomID: s.roomID, Entries: s.tl.Entries()}) {
		return
	}

	// Reader goroutine: processes pong frames, detects disconnects, and
	// surfaces resync requests.
	readClosed := make(chan struct{})
	resync := make(chan struct{}, 1)
	go s.readLoop(readClosed, resync)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readClosed:
			return
		case ev, ok := <-events:
			if !ok {
				// Dropped by the hub for falling behind; the client
				// reconnects and reloads.
				s.log.Warn().Str("room_id", s.roomID).Msg("session dropped by hub")
				return
			}
			// Pin toggles re-deliver a known id; Insert updates in place.
			s.tl.Insert(ev.Entry)
			if !s.write(Frame{Type: string(ev.Type), RoomID: ev.RoomID, Entry: &ev.Entry}) {
				return
			}
		case <-resync:
			if !s.write(Frame{Type: "snapshot", RoomID: s.roomID, Entries: s.tl.Entries()}) {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write marshals and sends one frame, reporting whether the connection is
// still usable.
func (s *Session) write(f Frame) bool {
	raw, err := json.Marshal(f)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal frame")
		return true
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return false
	}
	return true
}

// clientCommand is the only inbound message a viewer may send.
type clientCommand struct {
	Type string `json:"type"`
}

// readLoop drains the connection until it errors, keeping pongs flowing and
// forwarding resync requests. Anything unparseable is ignored.
func (s *Session) readLoop(done chan<- struct{}, resync chan<- struct{}) {
	defer close(done)
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("ws read")
			}
			return
		}
		var cmd clientCommand
		if json.Unmarshal(raw, &cmd) == nil && cmd.Type == "resync" {
			select {
			case resync <- struct{}{}:
			default: // one pending resync is enough
			}
		}
	}
}
