// Package realtime implements the push fabric that fans materialized feed
// records out to connected viewers: a per-room publish/subscribe hub and a
// websocket session that keeps each viewer's merged timeline current.
package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/streamverse/superchat-backend/internal/feed"
)

// EventType discriminates hub events.
type EventType string

const (
	// EventFreeMessage announces a newly stored free message.
	EventFreeMessage EventType = "message_new"
	// EventSuperchat announces a newly materialized paid message.
	EventSuperchat EventType = "superchat_new"
	// EventPinChanged announces a pin/unpin on either message kind. It is
	// delivered through the same path as creation so viewers converge on the
	// same pinned set.
	EventPinChanged EventType = "pin_changed"
)

// Event is one change notification scoped to a room. Entry carries the full
// record so subscribers can insert it without a read-back.
type Event struct {
	Type   EventType  `json:"type"`
	RoomID string     `json:"room_id"`
	Entry  feed.Entry `json:"entry"`
}

// subscriber buffers events per viewer; a full buffer drops the subscriber
// rather than blocking the publisher.
const subscriberBuffer = 64

// Hub is an in-process, room-scoped broadcast channel. Publish never blocks:
// a subscriber that cannot keep up is closed and must resync by reloading
// history. Hub is safe for concurrent use.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan Event]struct{}
	log   zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[chan Event]struct{}),
		log:   log,
	}
}

// Subscribe registers a new subscriber for roomID and returns its event
// channel plus a cancel func. Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe(roomID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	subs := h.rooms[roomID]
	if subs == nil {
		subs = make(map[chan Event]struct{})
		h.rooms[roomID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() { h.drop(roomID, ch) })
	}
	return ch, cancel
}

// drop removes and closes a subscriber channel. Closing happens under the
// exclusive lock and Publish sends only under the read lock, so a close can
// never race a send.
func (h *Hub) drop(roomID string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.rooms[roomID]
	if subs == nil {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(h.rooms, roomID)
	}
	close(ch)
}

// Publish delivers ev to every subscriber of ev.RoomID. Slow subscribers
// (full buffer) are dropped so one stuck viewer cannot stall the room. The
// non-blocking sends run while the read lock is held: a concurrent cancel
// cannot close a channel mid-send.
func (h *Hub) Publish(ev Event) {
	var slow []chan Event

	h.mu.RLock()
	for ch := range h.rooms[ev.RoomID] {
		select {
		case ch <- ev:
		default:
			slow = append(slow, ch)
		}
	}
	h.mu.RUnlock()

	for _, ch := range slow {
		h.log.Warn().Str("room_id", ev.RoomID).Msg("dropping slow feed subscriber")
		h.drop(ev.RoomID, ch)
	}
}

// Subscribers reports the number of live subscribers in a room.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
