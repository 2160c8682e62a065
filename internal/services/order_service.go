// Package services – OrderService
//
// This file implements OrderService, the entry point for creating superchat
// payment orders. It validates the amount against the tier table, normalizes
// and caps the message text up front (the text is captured on the order row
// so materialization never needs the client again), registers the order with
// the external gateway, and hands the order ref to the reconciliation
// watcher.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streamverse/superchat-backend/internal/domain"
	"github.com/streamverse/superchat-backend/internal/gateway"
	"github.com/streamverse/superchat-backend/internal/repo"
	"github.com/streamverse/superchat-backend/internal/tiers"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OrderGateway is the create side of the gateway client surface.
// *gateway.Client satisfies it.
type OrderGateway interface {
	CreateOrder(ctx context.Context, orderRef string, amountMinor int64) (*gateway.CheckoutHandle, error)
}

// OrderService creates orders and exposes order lookups.
type OrderService struct {
	DB      *gorm.DB
	Gateway OrderGateway
	Tiers   *tiers.Table

	// MaxTextRunes caps the superchat text. Zero means the default of 200.
	MaxTextRunes int

	// Watch, when set, is called with the order ref of every order that
	// reached the gateway. The reconciliation poller hangs off this hook.
	Watch func(orderRef string)
}

// Create validates and persists a new order, registers it with the gateway,
// and returns the stored order together with the checkout handle the client
// needs. If the gateway rejects or is unreachable, the order is closed as
// failed rather than left dangling in created.
func (s *OrderService) Create(ctx context.Context, roomID string, payer Identity, amountMinor int64, text string) (*domain.Order, *gateway.CheckoutHandle, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("room.id", roomID),
			attribute.Int64("order.amount_minor", amountMinor),
		),
	)
	defer span.End()

	if _, err := s.Tiers.Lookup(amountMinor); err != nil {
		return nil, nil, ErrUnknownTier
	}
	text, err := NormalizeText(text, s.maxRunes())
	if err != nil {
		return nil, nil, err
	}

	o := &domain.Order{
		OrderRef:          uuid.NewString(),
		RoomID:            roomID,
		PayerID:           payer.UserID,
		SenderDisplayName: payer.DisplayName,
		AmountMinor:       amountMinor,
		MessageText:       text,
		Status:            domain.StatusCreated,
	}
	o, err = repo.CreateOrder(ctx, s.DB, o)
	if err != nil {
		return nil, nil, err
	}
	span.SetAttributes(attribute.String("order.ref", o.OrderRef))

	handle, err := s.Gateway.CreateOrder(ctx, o.OrderRef, amountMinor)
	if err != nil {
		// Close the order so nothing polls or pays against it. The close is
		// best effort; the stale-order sweep catches anything left behind.
		_, _ = repo.TransitionTerminal(ctx, s.DB, o.OrderRef, domain.StatusFailed)
		return nil, nil, fmt.Errorf("register order with gateway: %w", err)
	}
	if err := repo.SetGatewayRef(ctx, s.DB, o.OrderRef, handle.GatewayRef); err != nil {
		return nil, nil, err
	}
	o.GatewayRef = handle.GatewayRef
	o.Status = domain.StatusProcessing

	ordersCreated.Inc()
	if s.Watch != nil {
		s.Watch(o.OrderRef)
	}
	return o, handle, nil
}

// Get returns the order identified by orderRef.
func (s *OrderService) Get(ctx context.Context, orderRef string) (*domain.Order, error) {
	o, err := repo.GetOrder(ctx, s.DB, orderRef)
	if err == repo.ErrNotFound {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (s *OrderService) maxRunes() int {
	if s.MaxTextRunes > 0 {
		return s.MaxTextRunes
	}
	return 200
}
