// Package domain defines the persistence models for payment orders and the
// two kinds of feed messages (free and paid). These types are mapped with
// GORM and form the core data layer of the superchat backend.
package domain

import (
	"time"
)

// Order status values. An order is terminal once it reaches StatusPaid,
// StatusFailed, or StatusExpired; the transition out of a non-terminal state
// happens at most once (enforced by a compare-and-set in the repo layer).
const (
	StatusCreated    = "created"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
)

// IsTerminalStatus reports whether s is one of the terminal order states.
func IsTerminalStatus(s string) bool {
	return s == StatusPaid || s == StatusFailed || s == StatusExpired
}

// Order represents a single payment attempt for a superchat. The order ref is
// generated server-side before the gateway is contacted, so the paying client
// can begin polling immediately even when the gateway call is slow.
//
// Fields:
//   - OrderRef: globally unique ref (char(36) UUID), primary key; the paid
//     message produced from this order carries the same ref.
//   - RoomID / PayerID: the room the superchat targets and who pays.
//   - AmountMinor: amount in minor currency units; must match a configured tier.
//   - Status: created | processing | paid | failed | expired.
//   - MessageText / SenderDisplayName: the superchat content captured at order
//     time; the materializer copies them onto the paid message once the order
//     is confirmed, so confirmation needs no second round trip to the client.
//   - GatewayRef: checkout/session handle returned by the gateway, if any.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Order struct {
	OrderRef          string    `json:"order_ref"    gorm:"type:char(36);primaryKey"`
	RoomID            string    `json:"room_id"      gorm:"type:varchar(64);not null;index:idx_room_orders"`
	PayerID           string    `json:"payer_id"     gorm:"type:varchar(64);not null;index"`
	AmountMinor       int64     `json:"amount_minor" gorm:"not null"`
	Status            string    `json:"status"       gorm:"type:varchar(16);not null;default:'created';index"`
	MessageText       string    `json:"message_text" gorm:"type:varchar(200);not null"`
	SenderDisplayName string    `json:"sender_display_name" gorm:"type:varchar(128);not null"`
	GatewayRef        string    `json:"gateway_ref,omitempty" gorm:"type:varchar(128)"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// PaidMessage is the message materialized from this order, if any.
	// Declaring the relation here puts the foreign key on paid_messages:
	// a paid message cannot exist without its order, and an order cannot be
	// deleted while its message remains.
	PaidMessage *PaidMessage `json:"-" gorm:"foreignKey:OrderRef;references:OrderRef;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// Terminal reports whether the order has reached a terminal status.
func (o *Order) Terminal() bool { return IsTerminalStatus(o.Status) }

// FreeMessage is an ordinary chat message in a room. It never expires on its
// own; the only mutation after creation is the pin flag, and only a privileged
// actor may toggle it.
type FreeMessage struct {
	ID                string    `json:"id"         gorm:"type:char(36);primaryKey"`
	RoomID            string    `json:"room_id"    gorm:"type:varchar(64);not null;index:idx_room_free,priority:1"`
	SenderID          string    `json:"sender_id"  gorm:"type:varchar(64);not null"`
	SenderDisplayName string    `json:"sender_display_name" gorm:"type:varchar(128);not null"`
	Text              string    `json:"text"       gorm:"type:text;not null"`
	AttachmentRef     string    `json:"attachment_ref,omitempty" gorm:"type:varchar(255)"`
	IsPinned          bool      `json:"is_pinned"  gorm:"not null;default:false"`
	CreatedAt         time.Time `json:"created_at" gorm:"index:idx_room_free,priority:2"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for FreeMessage.
func (FreeMessage) TableName() string { return "free_messages" }

// PaidMessage is a superchat: a paid, time-highlighted feed entry. Exactly one
// row exists per paid order; the unique index on OrderRef is the idempotency
// guard that makes materialization safe under the webhook/poller race.
//
// Expiry of the highlight window is a display property derived from
// CreatedAt + the tier's highlight duration. The row itself is never deleted
// during a session and can still be pinned after the window has elapsed.
type PaidMessage struct {
	ID                string    `json:"id"         gorm:"type:char(36);primaryKey"`
	RoomID            string    `json:"room_id"    gorm:"type:varchar(64);not null;index:idx_room_paid,priority:1"`
	SenderID          string    `json:"sender_id"  gorm:"type:varchar(64);not null"`
	SenderDisplayName string    `json:"sender_display_name" gorm:"type:varchar(128);not null"`
	Text              string    `json:"text"       gorm:"type:varchar(200);not null"`
	AmountMinor       int64     `json:"amount_minor" gorm:"not null"`
	OrderRef          string    `json:"order_ref"  gorm:"type:char(36);not null;uniqueIndex:ux_paid_order_ref"`
	IsPinned          bool      `json:"is_pinned"  gorm:"not null;default:false"`
	CreatedAt         time.Time `json:"created_at" gorm:"index:idx_room_paid,priority:2"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName returns the database table name for PaidMessage.
func (PaidMessage) TableName() string { return "paid_messages" }
