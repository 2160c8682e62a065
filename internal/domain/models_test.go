package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so the RESTRICT constraint actually executes.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (Order{}).TableName() != "orders" {
		t.Fatalf("Order.TableName() = %q; want %q", (Order{}).TableName(), "orders")
	}
	if (FreeMessage{}).TableName() != "free_messages" {
		t.Fatalf("FreeMessage.TableName() = %q; want %q", (FreeMessage{}).TableName(), "free_messages")
	}
	if (PaidMessage{}).TableName() != "paid_messages" {
		t.Fatalf("PaidMessage.TableName() = %q; want %q", (PaidMessage{}).TableName(), "paid_messages")
	}
}

func TestTerminalStatus(t *testing.T) {
	for _, s := range []string{StatusPaid, StatusFailed, StatusExpired} {
		if !IsTerminalStatus(s) {
			t.Fatalf("IsTerminalStatus(%q) = false; want true", s)
		}
	}
	for _, s := range []string{StatusCreated, StatusProcessing, "", "garbage"} {
		if IsTerminalStatus(s) {
			t.Fatalf("IsTerminalStatus(%q) = true; want false", s)
		}
	}

	o := &Order{Status: StatusProcessing}
	if o.Terminal() {
		t.Fatal("processing order reported terminal")
	}
	o.Status = StatusPaid
	if !o.Terminal() {
		t.Fatal("paid order not reported terminal")
	}
}

func TestMigrations_Indexes_AndOrderRefConstraint(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Order{}, &FreeMessage{}, &PaidMessage{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	// Tables exist
	for _, tbl := range []any{&Order{}, &FreeMessage{}, &PaidMessage{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Indexes from tags exist
	if !m.HasIndex(&Order{}, "idx_room_orders") {
		t.Fatalf("expected index idx_room_orders on orders")
	}
	if !m.HasIndex(&FreeMessage{}, "idx_room_free") {
		t.Fatalf("expected index idx_room_free on free_messages")
	}
	if !m.HasIndex(&PaidMessage{}, "idx_room_paid") {
		t.Fatalf("expected index idx_room_paid on paid_messages")
	}
	if !m.HasIndex(&PaidMessage{}, "ux_paid_order_ref") {
		t.Fatalf("expected unique index ux_paid_order_ref on paid_messages")
	}

	now := time.Now().UTC()

	// A bare order must insert cleanly: the foreign key lives on
	// paid_messages and must never constrain order creation.
	o := &Order{
		OrderRef:          "ord-1",
		RoomID:            "room-1",
		PayerID:           "payer-1",
		AmountMinor:       10000,
		Status:            StatusPaid,
		MessageText:       "great stream",
		SenderDisplayName: "Payer One",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("insert order: %v", err)
	}

	// FK: a paid message must reference an existing order.
	orphan := &PaidMessage{
		ID:                "pm-0",
		RoomID:            "room-1",
		SenderID:          "payer-1",
		SenderDisplayName: "Payer One",
		Text:              "great stream",
		AmountMinor:       10000,
		OrderRef:          "no-such-order",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(orphan).Error; err == nil {
		t.Fatal("expected paid message with unknown order_ref to be rejected")
	}

	p := &PaidMessage{
		ID:                "pm-1",
		RoomID:            "room-1",
		SenderID:          "payer-1",
		SenderDisplayName: "Payer One",
		Text:              "great stream",
		AmountMinor:       10000,
		OrderRef:          "ord-1",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert paid message: %v", err)
	}

	// Unique index: a second row for the same order must be rejected.
	dup := &PaidMessage{
		ID:                "pm-2",
		RoomID:            "room-1",
		SenderID:          "payer-1",
		SenderDisplayName: "Payer One",
		Text:              "great stream",
		AmountMinor:       10000,
		OrderRef:          "ord-1",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(dup).Error; err == nil {
		t.Fatal("expected duplicate paid message insert to fail")
	}

	// RESTRICT: the order cannot be deleted while its paid message exists.
	if err := db.Unscoped().Delete(&Order{}, "order_ref = ?", "ord-1").Error; err == nil {
		t.Fatal("expected order delete to be restricted while paid message exists")
	}
	var cnt int64
	if err := db.Model(&PaidMessage{}).Where("order_ref = ?", "ord-1").Count(&cnt).Error; err != nil {
		t.Fatalf("count paid messages: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("paid message lost after restricted order delete, count=%d", cnt)
	}
}
