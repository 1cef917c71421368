package repository

import (
	"context"

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
)

// OrderRepository persists orders and their payment records.
type OrderRepository interface {
	// Create stores a new order and its social media row. Returns
	// ErrOrderExists when the order id is taken.
	Create(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	// List returns all orders, newest first.
	List(ctx context.Context) ([]*model.Order, error)
	// UpdateStatus applies the order status machine.
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
	// RecordPayment inserts or merges the record keyed by (method, payment id).
	RecordPayment(ctx context.Context, payment *model.Payment) (*model.Payment, error)
	ListPayments(ctx context.Context, orderID string) ([]*model.Payment, error)
	// Settle moves the order to status and, when payment is not nil, records
	// it in the same unit of work. The payment is recorded even when the order
	// does not exist or refuses the transition; those cases are reported with
	// ErrOrderNotFound or ErrInvalidTransition alongside a non-nil Settlement.
	Settle(ctx context.Context, orderID string, status model.OrderStatus, payment *model.Payment) (*Settlement, error)
}

// Settlement is the outcome of Settle.
type Settlement struct {
	Order          *model.Order
	StatusChanged  bool
	Payment        *model.Payment
	PaymentChanged bool
}

// WebhookEventRepository remembers verified webhook deliveries.
type WebhookEventRepository interface {
	// Claim records a delivery. It returns false when the same event was
	// already completed and must not be processed again.
	Claim(ctx context.Context, event *model.WebhookEvent) (bool, error)
	// Finish stores the outcome; cause is kept for failed events.
	Finish(ctx context.Context, provider model.WebhookProvider, eventID string, status model.WebhookStatus, cause error) error
}
