// Package feed implements the client-facing merged timeline of free and paid
// messages. The merge is a pure function over the two tables plus a live
// update stream: arrival order never determines position, the (createdAt, id)
// ordering does, so every viewer converges on the same total order.
//
// Expiry is evaluated per render from the paid amount's highlight window; a
// message is never removed from the timeline when its window elapses.
package feed

import (
	"sort"
	"time"

	"github.com/streamverse/superchat-backend/internal/domain"
	"github.com/streamverse/superchat-backend/internal/tiers"
)

// Origin tags a timeline entry with the table it came from.
type Origin string

const (
	OriginFree Origin = "free"
	OriginPaid Origin = "paid"
)

// HighlightState is the display state of an entry at a given instant.
type HighlightState string

const (
	// StateActive: inside the highlight window (paid only).
	StateActive HighlightState = "active"
	// StateExpired: window elapsed, still in scroll-back history.
	StateExpired HighlightState = "expired"
	// StatePinned: forced visible by an admin regardless of the window.
	StatePinned HighlightState = "pinned"
	// StateNone: free message without a pin; no time bound applies.
	StateNone HighlightState = "none"
)

// Entry is one row of the merged timeline.
type Entry struct {
	Origin            Origin    `json:"origin"`
	ID                string    `json:"id"`
	RoomID            string    `json:"room_id"`
	SenderID          string    `json:"sender_id"`
	SenderDisplayName string    `json:"sender_display_name"`
	Text              string    `json:"text"`
	AttachmentRef     string    `json:"attachment_ref,omitempty"`
	AmountMinor       int64     `json:"amount_minor,omitempty"`
	OrderRef          string    `json:"order_ref,omitempty"`
	IsPinned          bool      `json:"is_pinned"`
	CreatedAt         time.Time `json:"created_at"`
}

// FromFree converts a free message row into a timeline entry.
func FromFree(m *domain.FreeMessage) Entry {
	return Entry{
		Origin:            OriginFree,
		ID:                m.ID,
		RoomID:            m.RoomID,
		SenderID:          m.SenderID,
		SenderDisplayName: m.SenderDisplayName,
		Text:              m.Text,
		AttachmentRef:     m.AttachmentRef,
		IsPinned:          m.IsPinned,
		CreatedAt:         m.CreatedAt,
	}
}

// FromPaid converts a paid message row into a timeline entry.
func FromPaid(m *domain.PaidMessage) Entry {
	return Entry{
		Origin:            OriginPaid,
		ID:                m.ID,
		RoomID:            m.RoomID,
		SenderID:          m.SenderID,
		SenderDisplayName: m.SenderDisplayName,
		Text:              m.Text,
		AmountMinor:       m.AmountMinor,
		OrderRef:          m.OrderRef,
		IsPinned:          m.IsPinned,
		CreatedAt:         m.CreatedAt,
	}
}

// less is the total order of the timeline: createdAt ascending, ties broken
// by id so that two viewers with the same rows agree on the same ordering.
func less(a, b Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Merge combines free and paid history into one ordered timeline. The inputs
// need not be sorted; the output order is independent of input order.
func Merge(free []domain.FreeMessage, paid []domain.PaidMessage) []Entry {
	out := make([]Entry, 0, len(free)+len(paid))
	for i := range free {
		out = append(out, FromFree(&free[i]))
	}
	for i := range paid {
		out = append(out, FromPaid(&paid[i]))
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// State evaluates the highlight state of e at instant now, deriving the
// window from the tier table. Pin wins over everything; free messages have no
// time bound.
func State(e Entry, tab *tiers.Table, now time.Time) HighlightState {
	if e.IsPinned {
		return StatePinned
	}
	if e.Origin == OriginFree {
		return StateNone
	}
	if now.Before(e.CreatedAt.Add(tab.HighlightDuration(e.AmountMinor))) {
		return StateActive
	}
	return StateExpired
}

// Timeline is a per-viewer ordered in-memory view of a room's feed. Change
// notifications may arrive in any order relative to createdAt, so Insert
// places each record at its ordered position instead of appending. Timeline
// is not safe for concurrent use; each viewer session owns one and funnels
// all updates through a single goroutine.
type Timeline struct {
	entries []Entry
	byID    map[string]int // id -> index in entries
}

// NewTimeline builds a timeline from already-merged history.
func NewTimeline(entries []Entry) *Timeline {
	tl := &Timeline{
		entries: make([]Entry, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(tl.entries, entries)
	sort.Slice(tl.entries, func(i, j int) bool { return less(tl.entries[i], tl.entries[j]) })
	for i := range tl.entries {
		tl.byID[tl.entries[i].ID] = i
	}
	return tl
}

// Insert places e at its ordered position. Re-delivery of a known id updates
// the stored entry in place (pin toggles arrive through the same path as
// creation), so duplicates never produce two rows.
func (tl *Timeline) Insert(e Entry) {
	if i, ok := tl.byID[e.ID]; ok {
		tl.entries[i] = e
		return
	}
	i := sort.Search(len(tl.entries), func(i int) bool { return less(e, tl.entries[i]) })
	tl.entries = append(tl.entries, Entry{})
	copy(tl.entries[i+1:], tl.entries[i:])
	tl.entries[i] = e
	for j := i; j < len(tl.entries); j++ {
		tl.byID[tl.entries[j].ID] = j
	}
}

// Entries returns the ordered timeline. The returned slice is a copy.
func (tl *Timeline) Entries() []Entry {
	out := make([]Entry, len(tl.entries))
	copy(out, tl.entries)
	return out
}

// Len returns the number of entries.
func (tl *Timeline) Len() int { return len(tl.entries) }

// Highlighted returns the entries rendered in the highlighted rail at now:
// paid messages inside their window plus everything pinned, in timeline order.
func (tl *Timeline) Highlighted(tab *tiers.Table, now time.Time) []Entry {
	var out []Entry
	for _, e := range tl.entries {
		switch State(e, tab, now) {
		case StateActive, StatePinned:
			out = append(out, e)
		}
	}
	return out
}
