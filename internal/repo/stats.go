// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the room stats endpoint. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/streamverse/superchat-backend/internal/domain"
)

// RoomStats is the aggregate view of a room's feed: message counts split by
// origin and the total paid revenue in minor units.
type RoomStats struct {
	FreeMessages int64 `json:"free_messages"`
	PaidMessages int64 `json:"paid_messages"`
	RevenueMinor int64 `json:"revenue_minor"`
	PinnedCount  int64 `json:"pinned_count"`
}

// GetRoomStats computes feed statistics for a room with four lightweight
// queries. Rooms with no messages return the zero value.
func GetRoomStats(ctx context.Context, db *gorm.DB, roomID string) (RoomStats, error) {
	var s RoomStats

	if err := db.WithContext(ctx).Model(&domain.FreeMessage{}).
		Where("room_id = ?", roomID).Count(&s.FreeMessages).Error; err != nil {
		return s, err
	}
	if err := db.WithContext(ctx).Model(&domain.PaidMessage{}).
		Where("room_id = ?", roomID).Count(&s.PaidMessages).Error; err != nil {
		return s, err
	}

	// COALESCE so an empty room sums to 0 instead of NULL.
	if err := db.WithContext(ctx).Model(&domain.PaidMessage{}).
		Where("room_id = ?", roomID).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&s.RevenueMinor).Error; err != nil {
		return s, err
	}

	var pinnedFree, pinnedPaid int64
	if err := db.WithContext(ctx).Model(&domain.FreeMessage{}).
		Where("room_id = ? AND is_pinned = ?", roomID, true).Count(&pinnedFree).Error; err != nil {
		return s, err
	}
	if err := db.WithContext(ctx).Model(&domain.PaidMessage{}).
		Where("room_id = ? AND is_pinned = ?", roomID, true).Count(&pinnedPaid).Error; err != nil {
		return s, err
	}
	s.PinnedCount = pinnedFree + pinnedPaid
	return s, nil
}
