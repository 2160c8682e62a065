// Package services – MessageService
//
// This file implements MessageService, the component that owns the free side
// of the feed and the operations shared by both message kinds: posting free
// messages, serving the merged history a viewer loads on join, pinning, and
// room statistics.
//
// Pin policy: free messages hold at most one pin per room (pinning a second
// one releases the first), paid pins stack. The privilege check lives here,
// at the mutation point, so no transport surface can route around it.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/streamverse/superchat-backend/internal/domain"
	"github.com/streamverse/superchat-backend/internal/feed"
	"github.com/streamverse/superchat-backend/internal/realtime"
	"github.com/streamverse/superchat-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/unicode/norm"
)

// Message kinds accepted by Pin.
const (
	KindFree = "free"
	KindPaid = "paid"
)

// Identity is the resolved caller of a request. Privileged is a capability
// decided once at the edge; services trust it and never re-derive it.
type Identity struct {
	UserID      string
	DisplayName string
	Privileged  bool
}

// NormalizeText NFC-normalizes s, collapses whitespace runs to single
// spaces, and enforces the rune cap. Both message kinds pass through here so
// stored text is comparable regardless of origin.
func NormalizeText(s string, maxRunes int) (string, error) {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	if s == "" {
		return "", ErrEmptyMessage
	}
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		return "", ErrMessageTooLong
	}
	return s, nil
}

// MessageService reads and mutates the per-room feed.
type MessageService struct {
	DB  *gorm.DB
	Hub Broadcaster

	// MaxTextRunes caps free message text. Zero means the default of 500.
	MaxTextRunes int
}

// PostFree validates and stores a free message, then announces it to the
// room. Free messages take the non-paid path end to end: no order, no
// gateway, no highlight window.
func (s *MessageService) PostFree(ctx context.Context, roomID string, sender Identity, text, attachmentRef string) (*domain.FreeMessage, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "PostFree",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	text, err := NormalizeText(text, s.maxRunes())
	if err != nil {
		return nil, err
	}

	m, err := repo.CreateFreeMessage(ctx, s.DB, roomID, sender.UserID, sender.DisplayName, text, attachmentRef)
	if err != nil {
		return nil, err
	}
	if s.Hub != nil {
		s.Hub.Publish(realtime.Event{
			Type:   realtime.EventFreeMessage,
			RoomID: roomID,
			Entry:  feed.FromFree(m),
		})
	}
	return m, nil
}

// History returns the merged room timeline, free and paid interleaved in the
// canonical order. limit bounds each source before the merge; zero means
// unbounded.
func (s *MessageService) History(ctx context.Context, roomID string, limit int) ([]feed.Entry, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("room.id", roomID)),
	)
	defer span.End()

	free, err := repo.ListFreeMessages(ctx, s.DB, roomID, limit)
	if err != nil {
		return nil, err
	}
	paid, err := repo.ListPaidMessages(ctx, s.DB, roomID, limit)
	if err != nil {
		return nil, err
	}
	return feed.Merge(free, paid), nil
}

// SetPinned pins or unpins the message identified by kind and id. Only a
// privileged caller may mutate pins; everyone sees the result through the
// pin_changed broadcast.
func (s *MessageService) SetPinned(ctx context.Context, caller Identity, kind, id string, pinned bool) (feed.Entry, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "SetPinned",
		trace.WithAttributes(
			attribute.String("message.kind", kind),
			attribute.String("message.id", id),
			attribute.Bool("message.pinned", pinned),
		),
	)
	defer span.End()

	if !caller.Privileged {
		return feed.Entry{}, ErrNotPrivileged
	}

	var entry feed.Entry
	switch kind {
	case KindFree:
		m, err := repo.SetFreeMessagePinned(ctx, s.DB, id, pinned)
		if err == repo.ErrNotFound {
			return feed.Entry{}, ErrMessageNotFound
		}
		if err != nil {
			return feed.Entry{}, err
		}
		entry = feed.FromFree(m)
	case KindPaid:
		m, err := repo.SetPaidMessagePinned(ctx, s.DB, id, pinned)
		if err == repo.ErrNotFound {
			return feed.Entry{}, ErrMessageNotFound
		}
		if err != nil {
			return feed.Entry{}, err
		}
		entry = feed.FromPaid(m)
	default:
		return feed.Entry{}, ErrUnknownKind
	}

	if s.Hub != nil {
		// Viewers apply the free pin exclusively on receipt, mirroring the
		// store, so the single event is enough for convergence.
		s.Hub.Publish(realtime.Event{
			Type:   realtime.EventPinChanged,
			RoomID: entry.RoomID,
			Entry:  entry,
		})
	}
	return entry, nil
}

// Stats returns the aggregate counters for a room.
func (s *MessageService) Stats(ctx context.Context, roomID string) (repo.RoomStats, error) {
	return repo.GetRoomStats(ctx, s.DB, roomID)
}

func (s *MessageService) maxRunes() int {
	if s.MaxTextRunes > 0 {
		return s.MaxTextRunes
	}
	return 500
}
