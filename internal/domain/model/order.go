package model

import (
	"database/sql/driver"
	"strings"
	"time"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusPaid          OrderStatus = "paid"
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
)

// Scan implements sql.Scanner interface
func (s *OrderStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		*s = OrderStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusPaymentFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusPaymentFailed
}

// PaymentMethod identifies how an order is paid. Card payments are stored
// as "stripe" to stay compatible with rows written by the storefront.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "stripe"
	PaymentMethodCrypto PaymentMethod = "crypto"
)

// ParsePaymentMethod accepts "card" as an alias for the card method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "card", "stripe":
		return PaymentMethodCard, nil
	case "crypto":
		return PaymentMethodCrypto, nil
	}
	return "", domainErrors.ErrInvalidPaymentMethod
}

// DisplayName is the label used in customer emails.
func (m PaymentMethod) DisplayName() string {
	if m == PaymentMethodCard {
		return "Credit Card (Stripe)"
	}
	return "Cryptocurrency"
}

// Order is a customer's purchase of one website package
type Order struct {
	ID             int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        string        `gorm:"column:order_id;uniqueIndex;size:32;not null" json:"order_id"`
	BusinessName   string        `gorm:"size:255;not null" json:"business_name"`
	Email          string        `gorm:"size:255;not null" json:"email"`
	Phone          string        `gorm:"size:64" json:"phone"`
	WebsiteDetails string        `gorm:"type:text" json:"website_details"`
	SelectedPlan   string        `gorm:"size:32;not null" json:"selected_plan"`
	PaymentMethod  PaymentMethod `gorm:"size:16;not null" json:"payment_method"`
	OrderDate      string        `gorm:"size:64" json:"order_date"`
	TotalAmount    string        `gorm:"size:32" json:"total_amount"`
	Status         OrderStatus   `gorm:"size:32;not null;default:'pending';index" json:"status"`
	CreatedAt      time.Time     `gorm:"default:now();index" json:"created_at"`

	// Relations
	SocialMedia *SocialMedia `gorm:"foreignKey:OrderRowID;references:ID" json:"social_media,omitempty"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// TransitionTo moves the order to target. Re-applying the current status is a
// no-op and reports changed=false.
func (o *Order) TransitionTo(target OrderStatus) (changed bool, err error) {
	if o.Status == target {
		return false, nil
	}
	if o.Status != OrderStatusPending || !target.Terminal() {
		return false, &domainErrors.TransitionError{OrderID: o.OrderID, From: string(o.Status), To: string(target)}
	}
	o.Status = target
	return true, nil
}

// SocialMedia holds optional social handles, one row per order
type SocialMedia struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderRowID int64     `gorm:"column:order_id;not null;uniqueIndex" json:"order_id"`
	Facebook   string    `gorm:"size:255" json:"facebook"`
	Instagram  string    `gorm:"size:255" json:"instagram"`
	Twitter    string    `gorm:"size:255" json:"twitter"`
	CreatedAt  time.Time `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (SocialMedia) TableName() string {
	return "social_media"
}

// Empty reports whether no handle is set.
func (s *SocialMedia) Empty() bool {
	return s == nil || (s.Facebook == "" && s.Instagram == "" && s.Twitter == "")
}
