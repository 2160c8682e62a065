// Payment webhook handler.
//
// This file exposes the gateway callback endpoint:
//   - POST /webhooks/payments
//
// The endpoint is deliberately outside the authenticated, rate-limited API
// group: the caller is the gateway, not a user, and it authenticates with a
// detached HMAC signature over the raw body. The gateway retries until it
// receives a 2xx, so an already-settled order must answer 200.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamverse/superchat-backend/internal/http/middleware"
	"github.com/streamverse/superchat-backend/internal/services"
)

// HeaderGatewaySignature carries the hex HMAC-SHA256 of the request body.
const HeaderGatewaySignature = "X-Gateway-Signature"

// webhook bodies are tiny; anything larger is hostile.
const maxWebhookBody = 64 << 10

// PaymentWebhook godoc
// @ID          paymentWebhook
// @Summary     Payment gateway callback
// @Description Applies a signed payment event. Replays of settled events return 200.
// @Tags        Payments
// @Accept      json
//
// @Param       X-Gateway-Signature  header  string  true  "Hex HMAC-SHA256 of the body"
//
// @Success     200  "Applied (or already applied)"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Bad signature"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown order"
// @Router      /webhooks/payments [post]
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}

	err = h.paySvc.HandleWebhook(c.Request.Context(), raw, c.GetHeader(HeaderGatewaySignature))
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, services.ErrBadSignature):
		middleware.LoggerFrom(c).Warn().Msg("webhook signature rejected")
		fail(c, http.StatusUnauthorized, ErrCodeBadSignature, "signature verification failed")
	case errors.Is(err, services.ErrMalformedPayload):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed payload")
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown order ref")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
