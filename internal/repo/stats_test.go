package repo

import (
	"context"
	"testing"

	"github.com/streamverse/superchat-backend/internal/domain"
)

func TestGetRoomStats_EmptyRoom(t *testing.T) {
	db := newTestDB(t)
	s, err := GetRoomStats(context.Background(), db, "empty")
	if err != nil {
		t.Fatalf("GetRoomStats: %v", err)
	}
	if s != (RoomStats{}) {
		t.Fatalf("want zero stats, got %+v", s)
	}
}

func TestGetRoomStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	free, err := CreateFreeMessage(ctx, db, "room-1", "s", "S", "hi", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SetFreeMessagePinned(ctx, db, free.ID, true); err != nil {
		t.Fatal(err)
	}

	for i, ref := range []string{"ref-1", "ref-2"} {
		mkOrder(t, db, ref, "room-1", domain.StatusPaid, 10000)
		m := &domain.PaidMessage{RoomID: "room-1", SenderID: "p", SenderDisplayName: "P", Text: "sc", AmountMinor: 10000, OrderRef: ref}
		if err := CreatePaidMessage(ctx, db, m); err != nil {
			t.Fatalf("paid %d: %v", i, err)
		}
	}

	s, err := GetRoomStats(ctx, db, "room-1")
	if err != nil {
		t.Fatalf("GetRoomStats: %v", err)
	}
	want := RoomStats{FreeMessages: 1, PaidMessages: 2, RevenueMinor: 20000, PinnedCount: 1}
	if s != want {
		t.Fatalf("stats mismatch: got %+v want %+v", s, want)
	}
}
