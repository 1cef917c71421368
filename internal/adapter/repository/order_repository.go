package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	domainRepo "github.com/2sipping0/pixelnextdigital/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderRepository implements OrderRepository on postgres through gorm
type orderRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new gorm-backed order repository
func NewOrderRepository(db *gorm.DB, logger *zap.Logger) domainRepo.OrderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domainErrors.ErrStoreUnavailable, op, err)
}

// Create inserts the order and its social media row in one transaction
func (r *orderRepository) Create(ctx context.Context, order *model.Order) (*model.Order, error) {
	social := order.SocialMedia

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).
			Create(order)
		if result.Error != nil {
			return storeError("insert order", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", domainErrors.ErrOrderExists, order.OrderID)
		}

		if !social.Empty() {
			social.OrderRowID = order.ID
			if err := tx.Create(social).Error; err != nil {
				return storeError("insert social media", err)
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domainErrors.ErrOrderExists) {
			r.logger.Error("Failed to create order",
				zap.String("order_id", order.OrderID),
				zap.Error(err))
		}
		return nil, err
	}

	order.SocialMedia = social
	return order, nil
}

// GetByOrderID retrieves an order with its social media row
func (r *orderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order

	err := r.db.WithContext(ctx).
		Preload("SocialMedia").
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, orderID)
		}
		return nil, storeError("get order", err)
	}

	return &order, nil
}

// List returns every order, newest first
func (r *orderRepository) List(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order

	err := r.db.WithContext(ctx).
		Preload("SocialMedia").
		Order("created_at DESC").
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, storeError("list orders", err)
	}

	return orders, nil
}

// UpdateStatus applies a status transition under a row lock
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	var order *model.Order

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, _, err = r.transition(tx, orderID, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// RecordPayment inserts or merges the payment keyed by method and provider id
func (r *orderRepository) RecordPayment(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	var stored *model.Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stored, _, err = r.upsertPayment(tx, payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// ListPayments returns the payment records of an order, oldest first
func (r *orderRepository) ListPayments(ctx context.Context, orderID string) ([]*model.Payment, error) {
	var payments []*model.Payment

	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, storeError("list payments", err)
	}

	return payments, nil
}

// Settle transitions the order and records the payment atomically
func (r *orderRepository) Settle(ctx context.Context, orderID string, status model.OrderStatus, payment *model.Payment) (*domainRepo.Settlement, error) {
	settlement := &domainRepo.Settlement{}
	var rejected error

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, changed, err := r.transition(tx, orderID, status)
		switch {
		case errors.Is(err, domainErrors.ErrOrderNotFound), errors.Is(err, domainErrors.ErrInvalidTransition):
			rejected = err
		case err != nil:
			return err
		default:
			settlement.Order = order
			settlement.StatusChanged = changed
		}

		if payment == nil {
			return nil
		}
		stored, paymentChanged, err := r.upsertPayment(tx, payment)
		if err != nil {
			return err
		}
		settlement.Payment = stored
		settlement.PaymentChanged = paymentChanged
		return nil
	})
	if err != nil {
		return nil, err
	}

	return settlement, rejected
}

func (r *orderRepository) transition(tx *gorm.DB, orderID string, status model.OrderStatus) (*model.Order, bool, error) {
	var order model.Order

	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: %s", domainErrors.ErrOrderNotFound, orderID)
		}
		return nil, false, storeError("lock order", err)
	}

	changed, err := order.TransitionTo(status)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return &order, false, nil
	}

	if err := tx.Model(&order).Update("status", status).Error; err != nil {
		return nil, false, storeError("update order status", err)
	}

	r.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(status)))

	return &order, true, nil
}

func (r *orderRepository) upsertPayment(tx *gorm.DB, payment *model.Payment) (*model.Payment, bool, error) {
	var existing model.Payment

	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_method = ? AND payment_id = ?", payment.PaymentMethod, payment.PaymentID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(payment)
		if result.Error != nil {
			return nil, false, storeError("insert payment", result.Error)
		}
		if result.RowsAffected == 1 {
			return payment, true, nil
		}
		// Lost a race with a concurrent insert; merge into the winner.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_method = ? AND payment_id = ?", payment.PaymentMethod, payment.PaymentID).
			First(&existing).Error; err != nil {
			return nil, false, storeError("reload payment", err)
		}
	case err != nil:
		return nil, false, storeError("lock payment", err)
	}

	if !existing.MergeFrom(payment) {
		return &existing, false, nil
	}
	existing.UpdatedAt = time.Now()

	err = tx.Model(&existing).Updates(map[string]interface{}{
		"order_id":   existing.OrderID,
		"amount":     existing.Amount,
		"currency":   existing.Currency,
		"status":     existing.Status,
		"metadata":   existing.Metadata,
		"verified":   existing.Verified,
		"updated_at": existing.UpdatedAt,
	}).Error
	if err != nil {
		return nil, false, storeError("update payment", err)
	}

	return &existing, true, nil
}
