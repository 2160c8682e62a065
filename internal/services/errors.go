// Package services defines the business logic for payment orders, superchat
// materialization, and the message feed. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Order/payment errors.
var (
	// ErrUnknownTier is returned when an order amount does not match any
	// configured tier.
	ErrUnknownTier = errors.New("amount does not match a configured tier")

	// ErrOrderNotFound indicates that the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotPaid is returned when materialization is requested for an
	// order that has not reached the paid state.
	ErrOrderNotPaid = errors.New("order is not paid")

	// ErrBadSignature is returned when a webhook callback fails HMAC
	// verification. No state is mutated in that case.
	ErrBadSignature = errors.New("webhook signature invalid")

	// ErrMalformedPayload is returned when a verified webhook body cannot be
	// parsed or names no known event.
	ErrMalformedPayload = errors.New("webhook payload malformed")
)

// Message/feed errors.
var (
	// ErrEmptyMessage is returned when a message has no content after
	// normalization.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a message exceeds the configured
	// length limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrMessageNotFound indicates that the requested message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnknownKind is returned when a pin request names a message kind
	// other than free or paid.
	ErrUnknownKind = errors.New("unknown message kind")

	// ErrNotPrivileged is returned when a non-privileged caller attempts a
	// pin or unpin. The check lives at the mutation point, not in the UI.
	ErrNotPrivileged = errors.New("caller is not privileged")
)
