package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Status is the gateway-side state of an order.
type Status string

// Gateway order states as returned by the create/status APIs. Active means
// the checkout is open and unpaid; the other three are terminal.
const (
	StatusActive    Status = "ACTIVE"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the gateway considers the order settled one way or
// the other.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCancelled
}

// ErrUnavailable wraps transport-level failures talking to the gateway so
// callers can distinguish "gateway down" from a business rejection.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Config holds the connection settings for the gateway.
type Config struct {
	BaseURL   string        // e.g. "https://sandbox.gateway.example"
	KeyID     string        // merchant key id sent with every request
	APISecret string        // secret used to sign outbound requests
	Currency  string        // ISO currency code, e.g. "INR"
	ReturnURL string        // where the gateway sends the payer after checkout
	NotifyURL string        // our webhook endpoint, registered per order
	Timeout   time.Duration // per-request HTTP timeout
}

// Client talks to the external payment gateway. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a gateway client from cfg. A zero Timeout defaults to 10s.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// CheckoutHandle is what the paying client needs to open the gateway UI.
type CheckoutHandle struct {
	GatewayRef  string `json:"gateway_ref"`
	CheckoutURL string `json:"checkout_url"`
}

// createOrderRequest is the outbound create-order payload.
type createOrderRequest struct {
	KeyID       string `json:"key_id"`
	OrderRef    string `json:"order_ref"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	ReturnURL   string `json:"return_url"`
	NotifyURL   string `json:"notify_url"`
	Signature   string `json:"signature"`
}

type createOrderResponse struct {
	GatewayRef  string `json:"gateway_ref"`
	CheckoutURL string `json:"checkout_url"`
	Error       string `json:"error,omitempty"`
}

// CreateOrder registers orderRef with the gateway for the given amount and
// returns the checkout handle. The request carries an HMAC signature over the
// sorted business fields.
func (c *Client) CreateOrder(ctx context.Context, orderRef string, amountMinor int64) (*CheckoutHandle, error) {
	sig := Sign([]byte(BuildRawSignature(map[string]string{
		"amount":    strconv.FormatInt(amountMinor, 10),
		"currency":  c.cfg.Currency,
		"key_id":    c.cfg.KeyID,
		"notify":    c.cfg.NotifyURL,
		"order_ref": orderRef,
		"return":    c.cfg.ReturnURL,
	})), c.cfg.APISecret)

	body, err := json.Marshal(createOrderRequest{
		KeyID:       c.cfg.KeyID,
		OrderRef:    orderRef,
		AmountMinor: amountMinor,
		Currency:    c.cfg.Currency,
		ReturnURL:   c.cfg.ReturnURL,
		NotifyURL:   c.cfg.NotifyURL,
		Signature:   sig,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	var out createOrderResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode create response: %v", ErrUnavailable, err)
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		if out.Error != "" {
			return nil, fmt.Errorf("gateway rejected order %s: %s", orderRef, out.Error)
		}
		return nil, fmt.Errorf("%w: create order status %d", ErrUnavailable, res.StatusCode)
	}
	return &CheckoutHandle{GatewayRef: out.GatewayRef, CheckoutURL: out.CheckoutURL}, nil
}

// StatusResult is the gateway's view of an order.
type StatusResult struct {
	OrderRef    string `json:"order_ref"`
	Status      Status `json:"status"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// FetchStatus queries the order status by our orderRef. It is the pull half
// of the dual confirmation channel; the push half is the signed webhook.
func (c *Client) FetchStatus(ctx context.Context, orderRef string) (*StatusResult, error) {
	u := c.cfg.BaseURL + "/v1/orders/" + url.PathEscape(orderRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Key-Id", c.cfg.KeyID)
	req.Header.Set("X-Signature", Sign([]byte(orderRef), c.cfg.APISecret))

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status query returned %d", ErrUnavailable, res.StatusCode)
	}
	var out StatusResult
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode status response: %v", ErrUnavailable, err)
	}
	return &out, nil
}
