package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamverse/superchat-backend/internal/feed"
)

func testEvent(room, id string) Event {
	return Event{
		Type:   EventSuperchat,
		RoomID: room,
		Entry:  feed.Entry{Origin: feed.OriginPaid, ID: id, RoomID: room, CreatedAt: time.Now().UTC()},
	}
}

func TestHub_PublishFanOut(t *testing.T) {
	h := NewHub(zerolog.Nop())

	a, cancelA := h.Subscribe("room-1")
	b, cancelB := h.Subscribe("room-1")
	other, cancelOther := h.Subscribe("room-2")
	defer cancelA()
	defer cancelB()
	defer cancelOther()

	h.Publish(testEvent("room-1", "m1"))

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Entry.ID != "m1" {
				t.Fatalf("%s: wrong event %q", name, ev.Entry.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no event delivered", name)
		}
	}

	select {
	case ev := <-other:
		t.Fatalf("room-2 subscriber received room-1 event: %+v", ev)
	default:
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	h := NewHub(zerolog.Nop())

	ch, cancel := h.Subscribe("room-1")
	cancel()
	// Idempotent.
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after cancel")
	}
	if n := h.Subscribers("room-1"); n != 0 {
		t.Fatalf("want 0 subscribers, got %d", n)
	}

	// Publishing into an empty room must not panic.
	h.Publish(testEvent("room-1", "m1"))
}

func TestHub_SlowSubscriberDropped(t *testing.T) {
	h := NewHub(zerolog.Nop())

	ch, cancel := h.Subscribe("room-1")
	defer cancel()

	// Fill the buffer without draining, then publish one more.
	for i := 0; i <= subscriberBuffer; i++ {
		h.Publish(testEvent("room-1", "m"))
	}

	// The subscriber must have been dropped and its channel closed after
	// the buffered events.
	drained := 0
	for range ch {
		drained++
	}
	if drained != subscriberBuffer {
		t.Fatalf("drained %d events, want %d", drained, subscriberBuffer)
	}
	if n := h.Subscribers("room-1"); n != 0 {
		t.Fatalf("slow subscriber still registered: %d", n)
	}
}

func TestHub_PublishDuringChurn(t *testing.T) {
	h := NewHub(zerolog.Nop())

	// Publishers racing viewers that connect and disconnect: a cancel must
	// never close a channel out from under an in-flight send.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					h.Publish(testEvent("room-1", "m"))
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		ch, cancel := h.Subscribe("room-1")
		// Drain a little so some cancels hit a non-empty buffer.
		select {
		case <-ch:
		default:
		}
		cancel()
	}

	close(stop)
	wg.Wait()
	if n := h.Subscribers("room-1"); n != 0 {
		t.Fatalf("want 0 subscribers after churn, got %d", n)
	}
}

func TestHub_SubscribersCount(t *testing.T) {
	h := NewHub(zerolog.Nop())
	_, c1 := h.Subscribe("room-1")
	_, c2 := h.Subscribe("room-1")
	if n := h.Subscribers("room-1"); n != 2 {
		t.Fatalf("want 2, got %d", n)
	}
	c1()
	if n := h.Subscribers("room-1"); n != 1 {
		t.Fatalf("want 1, got %d", n)
	}
	c2()
}
