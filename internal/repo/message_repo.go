// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the free and
// paid message tables, including the conflict-guarded paid insert that makes
// materialization exactly-once.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streamverse/superchat-backend/internal/domain"
)

// ErrDuplicate indicates that a paid message already exists for the order ref.
var ErrDuplicate = errors.New("duplicate")

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey. glebarez/sqlite often returns plain-text
// errors for UNIQUE violations.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// CreateFreeMessage inserts a new free message row with a UUID primary key.
func CreateFreeMessage(ctx context.Context, db *gorm.DB, roomID, senderID, senderName, text, attachmentRef string) (*domain.FreeMessage, error) {
	m := &domain.FreeMessage{
		ID:                uuid.NewString(),
		RoomID:            roomID,
		SenderID:          senderID,
		SenderDisplayName: senderName,
		Text:              text,
		AttachmentRef:     attachmentRef,
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// CreatePaidMessage inserts the paid message for an order and returns
// ErrDuplicate when a row for that order ref already exists. The unique index
// on order_ref is the idempotency guard; callers recover by fetching the
// existing row.
func CreatePaidMessage(ctx context.Context, db *gorm.DB, m *domain.PaidMessage) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetPaidMessageByOrderRef fetches the paid message materialized from an
// order, or ErrNotFound.
func GetPaidMessageByOrderRef(ctx context.Context, db *gorm.DB, orderRef string) (*domain.PaidMessage, error) {
	var m domain.PaidMessage
	if err := db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetFreeMessage fetches a free message by ID, or ErrNotFound.
func GetFreeMessage(ctx context.Context, db *gorm.DB, id string) (*domain.FreeMessage, error) {
	var m domain.FreeMessage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetPaidMessage fetches a paid message by ID, or ErrNotFound.
func GetPaidMessage(ctx context.Context, db *gorm.DB, id string) (*domain.PaidMessage, error) {
	var m domain.PaidMessage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListFreeMessages returns the room's free messages ordered deterministically
// (CreatedAt ASC, ID ASC) so every viewer converges on the same ordering even
// when two rows share a timestamp. A limit <= 0 returns all rows.
func ListFreeMessages(ctx context.Context, db *gorm.DB, roomID string, limit int) ([]domain.FreeMessage, error) {
	var out []domain.FreeMessage
	q := db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListPaidMessages returns the room's paid messages ordered (CreatedAt ASC,
// ID ASC). A limit <= 0 returns all rows.
func ListPaidMessages(ctx context.Context, db *gorm.DB, roomID string, limit int) ([]domain.PaidMessage, error) {
	var out []domain.PaidMessage
	q := db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// SetFreeMessagePinned updates the pin flag of a free message. Pinning a free
// message is exclusive: any other pinned free message in the same room is
// unpinned in the same transaction. Returns ErrNotFound when the id is
// unknown.
func SetFreeMessagePinned(ctx context.Context, db *gorm.DB, id string, pinned bool) (*domain.FreeMessage, error) {
	var m domain.FreeMessage
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if pinned {
			if err := tx.Model(&domain.FreeMessage{}).
				Where("room_id = ? AND is_pinned = ? AND id <> ?", m.RoomID, true, id).
				Update("is_pinned", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&m).Update("is_pinned", pinned).Error; err != nil {
			return err
		}
		m.IsPinned = pinned
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SetPaidMessagePinned updates the pin flag of a paid message. Paid pins are
// not exclusive: several superchats may be pinned at once. Returns ErrNotFound
// when the id is unknown.
func SetPaidMessagePinned(ctx context.Context, db *gorm.DB, id string, pinned bool) (*domain.PaidMessage, error) {
	var m domain.PaidMessage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&m).Update("is_pinned", pinned).Error; err != nil {
		return nil, err
	}
	m.IsPinned = pinned
	return &m, nil
}
