package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	domainRepo "github.com/2sipping0/pixelnextdigital/internal/domain/repository"
)

// MemoryOrderRepository is an in-process OrderRepository. One mutex guards
// every operation, so Settle is atomic.
type MemoryOrderRepository struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int64
	orders   map[string]*model.Order
	payments map[string]*model.Payment
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		now:      time.Now,
		orders:   make(map[string]*model.Order),
		payments: make(map[string]*model.Payment),
	}
}

func paymentKey(method model.PaymentMethod, paymentID string) string {
	return string(method) + ":" + paymentID
}

func cloneOrder(o *model.Order) *model.Order {
	c := *o
	if o.SocialMedia != nil {
		s := *o.SocialMedia
		c.SocialMedia = &s
	}
	return &c
}

func clonePayment(p *model.Payment) *model.Payment {
	c := *p
	return &c
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.OrderID]; exists {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrOrderExists, order.OrderID)
	}

	r.nextID++
	stored := cloneOrder(order)
	stored.ID = r.nextID
	if stored.Status == "" {
		stored.Status = model.OrderStatusPending
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = r.now()
	}
	if stored.SocialMedia.Empty() {
		stored.SocialMedia = nil
	} else {
		stored.SocialMedia.ID = stored.ID
		stored.SocialMedia.OrderRowID = stored.ID
		stored.SocialMedia.CreatedAt = stored.CreatedAt
	}
	r.orders[order.OrderID] = stored

	return cloneOrder(stored), nil
}

func (r *MemoryOrderRepository) GetByOrderID(_ context.Context, orderID string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, orderID)
	}
	return cloneOrder(order), nil
}

func (r *MemoryOrderRepository) List(_ context.Context) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := make([]*model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, cloneOrder(o))
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, _, err := r.transition(orderID, status)
	return order, err
}

func (r *MemoryOrderRepository) RecordPayment(_ context.Context, payment *model.Payment) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, _ := r.upsertPayment(payment)
	return stored, nil
}

func (r *MemoryOrderRepository) ListPayments(_ context.Context, orderID string) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payments []*model.Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			payments = append(payments, clonePayment(p))
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

func (r *MemoryOrderRepository) Settle(_ context.Context, orderID string, status model.OrderStatus, payment *model.Payment) (*domainRepo.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	settlement := &domainRepo.Settlement{}
	order, changed, rejected := r.transition(orderID, status)
	settlement.Order = order
	settlement.StatusChanged = changed

	if payment != nil {
		settlement.Payment, settlement.PaymentChanged = r.upsertPayment(payment)
	}
	return settlement, rejected
}

func (r *MemoryOrderRepository) transition(orderID string, status model.OrderStatus) (*model.Order, bool, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, orderID)
	}

	changed, err := order.TransitionTo(status)
	if err != nil {
		return nil, false, err
	}
	return cloneOrder(order), changed, nil
}

func (r *MemoryOrderRepository) upsertPayment(payment *model.Payment) (*model.Payment, bool) {
	key := paymentKey(payment.PaymentMethod, payment.PaymentID)
	now := r.now()

	existing, ok := r.payments[key]
	if !ok {
		r.nextID++
		stored := clonePayment(payment)
		stored.ID = r.nextID
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.payments[key] = stored
		return clonePayment(stored), true
	}

	if !existing.MergeFrom(payment) {
		return clonePayment(existing), false
	}
	existing.UpdatedAt = now
	return clonePayment(existing), true
}
