// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order model,
// including the compare-and-set status transition that resolves the race
// between the webhook and polling confirmation paths.
//
// Error semantics:
//   - When an order is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/streamverse/superchat-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateOrder inserts a new Order row. CreatedAt is set to UTC.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) (*domain.Order, error) {
	if o.Status == "" {
		o.Status = domain.StatusCreated
	}
	o.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder fetches an order by ref, or ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, orderRef string) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// SetGatewayRef records the checkout handle returned by the gateway and moves
// a freshly created order into processing. It is a no-op once the order has
// left the created state.
func SetGatewayRef(ctx context.Context, db *gorm.DB, orderRef, gatewayRef string) error {
	return db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_ref = ? AND status = ?", orderRef, domain.StatusCreated).
		Updates(map[string]any{
			"gateway_ref": gatewayRef,
			"status":      domain.StatusProcessing,
		}).Error
}

// TransitionTerminal moves an order out of its non-terminal state into the
// given terminal status. The update is guarded so that only the first writer
// wins: both the webhook path and the poller call this, and the loser's write
// affects zero rows.
//
// It returns (won, err): won is true only when this caller performed the
// transition. A false result with nil error means the order was already
// terminal (or does not exist); callers needing to distinguish should fetch
// the row.
func TransitionTerminal(ctx context.Context, db *gorm.DB, orderRef, terminalStatus string) (bool, error) {
	if !domain.IsTerminalStatus(terminalStatus) {
		return false, gorm.ErrInvalidValue
	}
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_ref = ? AND status IN ?", orderRef, []string{domain.StatusCreated, domain.StatusProcessing}).
		Update("status", terminalStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExpireStaleOrders marks non-terminal orders older than cutoff as expired and
// returns how many rows were swept. A late webhook for a swept order is a
// no-op by the same compare-and-set rule as any other post-terminal write.
func ExpireStaleOrders(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("status IN ? AND created_at < ?", []string{domain.StatusCreated, domain.StatusProcessing}, cutoff).
		Update("status", domain.StatusExpired)
	return res.RowsAffected, res.Error
}
