// Package services – PaymentService
//
// This file implements PaymentService, the component that owns the terminal
// half of an order's life: verifying gateway webhooks, pulling status from
// the gateway, winning (or losing) the single compare-and-set transition to a
// terminal state, and materializing exactly one paid message per paid order.
//
// Confirmation is dual-channel. The signed webhook is the push path; the
// reconciliation poller drives the pull path through ConfirmFromGateway. Both
// funnel into Confirm, so whichever arrives first wins the transition and the
// loser degrades to a read.
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/streamverse/superchat-backend/internal/domain"
	"github.com/streamverse/superchat-backend/internal/feed"
	"github.com/streamverse/superchat-backend/internal/gateway"
	"github.com/streamverse/superchat-backend/internal/realtime"
	"github.com/streamverse/superchat-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Confirmation paths, used as metric labels.
const (
	PathWebhook = "webhook"
	PathPoll    = "poll"
)

// Broadcaster pushes feed events to connected viewers. *realtime.Hub
// satisfies it; tests substitute a recorder.
type Broadcaster interface {
	Publish(ev realtime.Event)
}

// StatusFetcher is the pull side of the gateway client surface.
// *gateway.Client satisfies it.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, orderRef string) (*gateway.StatusResult, error)
}

// webhookPayload is the body of a gateway payment callback, parsed only
// after the detached HMAC signature verifies against the raw bytes.
type webhookPayload struct {
	OrderRef    string `json:"order_ref"`
	Event       string `json:"event"`
	AmountMinor int64  `json:"amount_minor"`
}

// PaymentService confirms orders and materializes paid messages.
type PaymentService struct {
	DB            *gorm.DB
	Gateway       StatusFetcher
	WebhookSecret string
	Hub           Broadcaster
}

// HandleWebhook verifies and applies one gateway callback. The signature is
// checked over the raw body before anything is parsed; a bad signature
// mutates no state. A duplicate or late callback for an already-terminal
// order returns nil, since the gateway retries until it sees 2xx.
func (s *PaymentService) HandleWebhook(ctx context.Context, raw []byte, signature string) error {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "HandleWebhook")
	defer span.End()

	if !gateway.VerifySignature(raw, signature, s.WebhookSecret) {
		return ErrBadSignature
	}

	var p webhookPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.OrderRef == "" {
		return fmt.Errorf("%w: missing order_ref", ErrMalformedPayload)
	}

	var status string
	switch p.Event {
	case "paid":
		status = domain.StatusPaid
	case "failed", "cancelled":
		status = domain.StatusFailed
	default:
		return fmt.Errorf("%w: unknown event %q", ErrMalformedPayload, p.Event)
	}
	span.SetAttributes(
		attribute.String("order.ref", p.OrderRef),
		attribute.String("order.status", status),
	)

	_, err := s.Confirm(ctx, p.OrderRef, status, PathWebhook)
	return err
}

// ConfirmFromGateway is the pull path: it asks the gateway for the current
// status of orderRef and applies it. A non-terminal gateway status is a
// no-op; the caller polls again later. Returns the order as stored after
// the attempt.
func (s *PaymentService) ConfirmFromGateway(ctx context.Context, orderRef string) (*domain.Order, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "ConfirmFromGateway",
		trace.WithAttributes(attribute.String("order.ref", orderRef)),
	)
	defer span.End()

	o, err := repo.GetOrder(ctx, s.DB, orderRef)
	if err == repo.ErrNotFound {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Terminal() {
		return o, nil
	}

	res, err := s.Gateway.FetchStatus(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if !res.Status.Terminal() {
		return o, nil
	}

	status := domain.StatusFailed
	if res.Status == gateway.StatusPaid {
		status = domain.StatusPaid
	}
	return s.Confirm(ctx, orderRef, status, PathPoll)
}

// Confirm moves orderRef to the given terminal status. The transition is a
// compare-and-set: the first caller wins, every later caller is a no-op.
// When the stored terminal state is paid, Confirm also ensures the paid
// message exists, so a losing webhook still heals a poller that crashed
// between transition and materialization.
func (s *PaymentService) Confirm(ctx context.Context, orderRef, status, path string) (*domain.Order, error) {
	won, err := repo.TransitionTerminal(ctx, s.DB, orderRef, status)
	if err != nil {
		return nil, err
	}
	if won {
		paymentsConfirmed.WithLabelValues(path, status).Inc()
	}

	// Re-read: a lost race means someone else chose the terminal state. An
	// unknown ref also lands here, since the guarded update simply matches
	// zero rows.
	o, err := repo.GetOrder(ctx, s.DB, orderRef)
	if err == repo.ErrNotFound {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Status == domain.StatusPaid {
		if _, err := s.Materialize(ctx, o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Materialize inserts the paid message for a paid order. The unique index on
// paid_messages.order_ref makes this exactly-once: the first insert wins and
// is broadcast, any later attempt reads back the existing row and broadcasts
// nothing.
func (s *PaymentService) Materialize(ctx context.Context, o *domain.Order) (*domain.PaidMessage, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "Materialize",
		trace.WithAttributes(attribute.String("order.ref", o.OrderRef)),
	)
	defer span.End()

	if o.Status != domain.StatusPaid {
		return nil, ErrOrderNotPaid
	}

	m := &domain.PaidMessage{
		RoomID:            o.RoomID,
		SenderID:          o.PayerID,
		SenderDisplayName: o.SenderDisplayName,
		Text:              o.MessageText,
		AmountMinor:       o.AmountMinor,
		OrderRef:          o.OrderRef,
	}
	err := repo.CreatePaidMessage(ctx, s.DB, m)
	if err == repo.ErrDuplicate {
		duplicateMaterializations.Inc()
		return repo.GetPaidMessageByOrderRef(ctx, s.DB, o.OrderRef)
	}
	if err != nil {
		return nil, err
	}

	superchatsMaterialized.Inc()
	if s.Hub != nil {
		s.Hub.Publish(realtime.Event{
			Type:   realtime.EventSuperchat,
			RoomID: m.RoomID,
			Entry:  feed.FromPaid(m),
		})
	}
	return m, nil
}
