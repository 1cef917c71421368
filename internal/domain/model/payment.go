package model

import (
	"database/sql/driver"
	"time"
)

// PaymentStatus is the provider-reported state of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Scan implements sql.Scanner interface
func (s *PaymentStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = PaymentStatus(v)
	case []byte:
		*s = PaymentStatus(v)
	default:
		*s = PaymentStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s PaymentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Rank orders statuses so that records only move forward. Unknown provider
// statuses (e.g. Stripe's "processing") rank with pending.
func (s PaymentStatus) Rank() int {
	switch s {
	case PaymentStatusSucceeded, PaymentStatusConfirmed, PaymentStatusFailed:
		return 1
	}
	return 0
}

// Payment is one provider-side payment attempt for an order. The pair
// (PaymentMethod, PaymentID) is unique.
type Payment struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       string        `gorm:"column:order_id;size:32;not null;index" json:"order_id"`
	PaymentMethod PaymentMethod `gorm:"size:16;not null;uniqueIndex:idx_payments_method_payment_id" json:"payment_method"`
	PaymentID     string        `gorm:"size:255;not null;uniqueIndex:idx_payments_method_payment_id" json:"payment_id"`
	Amount        string        `gorm:"size:32;not null" json:"amount"`
	Currency      string        `gorm:"size:8;not null" json:"currency"`
	Status        PaymentStatus `gorm:"size:32;not null" json:"status"`
	Metadata      Metadata      `gorm:"type:jsonb" json:"metadata"`
	// Verified is set by provider webhooks. Client-reported records stay false.
	Verified  bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// MergeFrom applies a later write for the same provider payment and reports
// whether anything changed.
//
// A verified write replaces an unverified record outright. An unverified
// write never touches a verified record. Between writes of the same kind the
// status only moves forward, and a repeated terminal status is a no-op.
func (p *Payment) MergeFrom(next *Payment) bool {
	switch {
	case p.Verified && !next.Verified:
		return false
	case next.Verified && !p.Verified:
		p.apply(next, true)
		p.Verified = true
		return true
	}

	if p.Status.Rank() > next.Status.Rank() {
		return false
	}
	if p.Status.Rank() == next.Status.Rank() && p.Status.Rank() > 0 {
		return false
	}
	p.apply(next, false)
	return true
}

// apply copies next's non-empty fields. With replace set, next's metadata
// wins over the stored variant.
func (p *Payment) apply(next *Payment, replace bool) {
	p.Status = next.Status
	if next.Amount != "" {
		p.Amount = next.Amount
	}
	if next.Currency != "" {
		p.Currency = next.Currency
	}
	if next.OrderID != "" {
		p.OrderID = next.OrderID
	}
	if replace && !next.Metadata.IsZero() && !sameVariant(p.Metadata, next.Metadata) {
		p.Metadata = next.Metadata
		return
	}
	p.Metadata = p.Metadata.Merge(next.Metadata)
}

func sameVariant(a, b Metadata) bool {
	return (a.Card != nil && b.Card != nil) || (a.Crypto != nil && b.Crypto != nil)
}
