package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/streamverse/superchat-backend/internal/feed"
)

func dialSession(t *testing.T, hub *Hub, history []feed.Entry) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	load := func(ctx context.Context, roomID string) ([]feed.Entry, error) {
		return history, nil
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewSession(conn, hub, "room-1", load, zerolog.Nop()).Run(r.Context())
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return f
}

func TestSession_SnapshotThenLiveThenResync(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history := []feed.Entry{
		{Origin: feed.OriginFree, ID: "aaa", RoomID: "room-1", Text: "hi", CreatedAt: ts},
	}

	conn := dialSession(t, hub, history)

	// Loading phase: exactly one snapshot with the history.
	snap := readFrame(t, conn)
	if snap.Type != "snapshot" || len(snap.Entries) != 1 || snap.Entries[0].ID != "aaa" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Live phase: a published event is forwarded.
	hub.Publish(Event{
		Type:   EventSuperchat,
		RoomID: "room-1",
		Entry:  feed.Entry{Origin: feed.OriginPaid, ID: "bbb", RoomID: "room-1", Text: "sc", CreatedAt: ts.Add(time.Second)},
	})
	ev := readFrame(t, conn)
	if ev.Type != string(EventSuperchat) || ev.Entry == nil || ev.Entry.ID != "bbb" {
		t.Fatalf("unexpected event frame: %+v", ev)
	}

	// Resync: the session replays its ordered view, history plus the
	// event it forwarded, without a reconnect.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"resync"}`)); err != nil {
		t.Fatalf("send resync: %v", err)
	}
	again := readFrame(t, conn)
	if again.Type != "snapshot" {
		t.Fatalf("want snapshot after resync, got %+v", again)
	}
	if len(again.Entries) != 2 || again.Entries[0].ID != "aaa" || again.Entries[1].ID != "bbb" {
		t.Fatalf("resync snapshot out of order or incomplete: %+v", again.Entries)
	}
}
