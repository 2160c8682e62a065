// Order HTTP handlers.
//
// This file exposes REST endpoints for superchat payment orders:
//   - POST /rooms/{id}/orders  (create an order, returns the checkout handle)
//   - GET  /orders/{ref}       (read an order; nudges reconciliation)
//   - GET  /tiers              (list the configured tiers)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamverse/superchat-backend/internal/domain"
	"github.com/streamverse/superchat-backend/internal/feed"
	"github.com/streamverse/superchat-backend/internal/gateway"
	"github.com/streamverse/superchat-backend/internal/http/middleware"
	"github.com/streamverse/superchat-backend/internal/repo"
	"github.com/streamverse/superchat-backend/internal/services"
	"github.com/streamverse/superchat-backend/internal/tiers"
)

//
// Service contracts (context-aware)
//

// OrderService defines order lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type OrderService interface {
	// Create validates and persists a new order and registers it with the
	// payment gateway.
	Create(ctx context.Context, roomID string, payer services.Identity, amountMinor int64, text string) (*domain.Order, *gateway.CheckoutHandle, error)
	// Get returns the order identified by orderRef.
	Get(ctx context.Context, orderRef string) (*domain.Order, error)
}

// PaymentService defines payment confirmation operations.
type PaymentService interface {
	// HandleWebhook verifies and applies one gateway callback.
	HandleWebhook(ctx context.Context, raw []byte, signature string) error
	// ConfirmFromGateway pulls the gateway status for orderRef and applies it.
	ConfirmFromGateway(ctx context.Context, orderRef string) (*domain.Order, error)
}

// MessageService defines feed read/write operations.
type MessageService interface {
	// PostFree stores and broadcasts a free message.
	PostFree(ctx context.Context, roomID string, sender services.Identity, text, attachmentRef string) (*domain.FreeMessage, error)
	// History returns the merged room timeline.
	History(ctx context.Context, roomID string, limit int) ([]feed.Entry, error)
	// SetPinned pins or unpins one message.
	SetPinned(ctx context.Context, caller services.Identity, kind, id string, pinned bool) (feed.Entry, error)
	// Stats returns the aggregate counters for a room.
	Stats(ctx context.Context, roomID string) (repo.RoomStats, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for orders, payments, and the feed.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	orderSvc OrderService
	paySvc   PaymentService
	msgSvc   MessageService
	tierTab  *tiers.Table
}

// New constructs and returns a Handlers instance bound to the given services.
func New(orderSvc OrderService, paySvc PaymentService, msgSvc MessageService, tierTab *tiers.Table) *Handlers {
	return &Handlers{orderSvc: orderSvc, paySvc: paySvc, msgSvc: msgSvc, tierTab: tierTab}
}

// identity converts the middleware-resolved caller into the service type.
func identity(c *gin.Context) services.Identity {
	id := middleware.IdentityFrom(c)
	return services.Identity{UserID: id.UserID, DisplayName: id.DisplayName, Privileged: id.Privileged}
}

//
// DTOs
//

// CreateOrderRequest is the JSON payload for creating a superchat order.
type CreateOrderRequest struct {
	// AmountMinor is the payment amount in minor currency units; it must
	// match a configured tier exactly.
	AmountMinor int64 `json:"amount_minor" binding:"required" example:"10000"`
	// Text is the superchat message, captured now and shown once paid.
	Text string `json:"text" binding:"required" example:"great stream!"`
}

// CreateOrderResponse returns the stored order and the gateway checkout.
type CreateOrderResponse struct {
	Order    *domain.Order           `json:"order"`
	Checkout *gateway.CheckoutHandle `json:"checkout"`
}

//
// Handlers
//

// CreateOrder godoc
// @ID          createOrder
// @Summary     Create a superchat order
// @Description Validates the amount against the tier table, stores the order, and registers it with the payment gateway.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       X-User-Id  header  string  true  "User ID"  example(user123)
// @Param       id         path    string  true  "Room ID"
// @Param       body       body    handlers.CreateOrderRequest  true  "Create order payload"
//
// @Success     201  {object}  handlers.CreateOrderResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Gateway failed"
// @Router      /rooms/{id}/orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	roomID := c.Param("id")
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	o, checkout, err := h.orderSvc.Create(c.Request.Context(), roomID, identity(c), req.AmountMinor, req.Text)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, CreateOrderResponse{Order: o, Checkout: checkout})
	case errors.Is(err, services.ErrUnknownTier):
		fail(c, http.StatusBadRequest, ErrCodeUnknownTier, err.Error())
	case errors.Is(err, services.ErrEmptyMessage):
		fail(c, http.StatusBadRequest, ErrCodeEmptyMessage, err.Error())
	case errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, err.Error())
	case errors.Is(err, gateway.ErrUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeGatewayFailed, "payment gateway unavailable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// GetOrder godoc
// @ID          getOrder
// @Summary     Get an order
// @Description Returns the order; if it is still open, the gateway is consulted first so the paying client sees settlement as soon as possible.
// @Tags        Orders
// @Produce     json
//
// @Param       ref  path  string  true  "Order ref"
//
// @Success     200  {object}  domain.Order
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Router      /orders/{ref} [get]
func (h *Handlers) GetOrder(c *gin.Context) {
	ref := c.Param("ref")

	// Nudge the pull path. Failure to reach the gateway is not fatal for a
	// read; the stored state still answers.
	o, err := h.paySvc.ConfirmFromGateway(c.Request.Context(), ref)
	if errors.Is(err, services.ErrOrderNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
		return
	}
	if err != nil {
		o, err = h.orderSvc.Get(c.Request.Context(), ref)
		if errors.Is(err, services.ErrOrderNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
			return
		}
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
			return
		}
	}
	ok(c, http.StatusOK, o)
}

// ListTiers godoc
// @ID          listTiers
// @Summary     List superchat tiers
// @Description Returns the configured tier table: valid amounts, labels, and highlight durations.
// @Tags        Orders
// @Produce     json
//
// @Success     200  {array}  tiers.Tier
// @Router      /tiers [get]
func (h *Handlers) ListTiers(c *gin.Context) {
	ok(c, http.StatusOK, h.tierTab.Tiers())
}
