package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/domain/repository"
	"github.com/2sipping0/pixelnextdigital/pkg/messaging"
)

// ChannelOrderEvents is the pub/sub channel carrying OrderEvent messages
const ChannelOrderEvents = "orderflow:orders"

// Order event types
const (
	EventOrderPaid          = "order.paid"
	EventOrderPaymentFailed = "order.payment_failed"
)

const (
	notifyKindAdmin    = "admin"
	notifyKindCustomer = "customer"

	notificationTTL = 30 * 24 * time.Hour
)

// OrderMailer sends the two order emails
type OrderMailer interface {
	SendCustomerConfirmation(ctx context.Context, order *model.Order) error
	SendAdminAlert(ctx context.Context, order *model.Order) error
}

// OrderEvent is published whenever an order reaches a terminal status
type OrderEvent struct {
	Type          string              `json:"type"`
	OrderID       string              `json:"order_id"`
	Status        model.OrderStatus   `json:"status"`
	PaymentMethod model.PaymentMethod `json:"payment_method,omitempty"`
	PaymentID     string              `json:"payment_id,omitempty"`
	Amount        string              `json:"amount,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NotificationService sends order emails at most once per payment and
// publishes order events. Mailer and publisher are optional.
type NotificationService struct {
	mailer    OrderMailer
	ledger    repository.NotificationLedger
	publisher messaging.Publisher
	logger    *zap.Logger
}

func NewNotificationService(
	mailer OrderMailer,
	ledger repository.NotificationLedger,
	publisher messaging.Publisher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		mailer:    mailer,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// EmailConfigured reports whether an email transport is wired
func (s *NotificationService) EmailConfigured() bool {
	return s.mailer != nil
}

func (s *NotificationService) NotifyCustomer(ctx context.Context, order *model.Order) error {
	if s.mailer == nil {
		return ErrEmailNotConfigured
	}
	return s.mailer.SendCustomerConfirmation(ctx, order)
}

func (s *NotificationService) NotifyAdmins(ctx context.Context, order *model.Order) error {
	if s.mailer == nil {
		return ErrEmailNotConfigured
	}
	return s.mailer.SendAdminAlert(ctx, order)
}

// NotifyOrderPlaced alerts the admins, then confirms to the customer. Each
// email goes out once per payment id no matter how often this is called.
// Only the customer email's failure is returned.
func (s *NotificationService) NotifyOrderPlaced(ctx context.Context, order *model.Order, paymentID string) error {
	if err := s.once(ctx, notifyKindAdmin, order, paymentID, s.NotifyAdmins); err != nil {
		s.logger.Error("Admin notification failed",
			zap.String("order_id", order.OrderID),
			zap.String("payment_id", paymentID),
			zap.Error(err))
	}
	return s.once(ctx, notifyKindCustomer, order, paymentID, s.NotifyCustomer)
}

func (s *NotificationService) once(ctx context.Context, kind string, order *model.Order, paymentID string, send func(context.Context, *model.Order) error) error {
	key := NotificationKey(kind, order.OrderID, paymentID)

	acquired, err := s.ledger.Acquire(ctx, key, notificationTTL)
	if err != nil {
		// Ledger failures fall back to sending.
		s.logger.Warn("Notification ledger unavailable, sending without dedup",
			zap.String("key", key),
			zap.Error(err))
		acquired = true
	}
	if !acquired {
		s.logger.Debug("Notification already sent",
			zap.String("key", key),
			zap.String("order_id", order.OrderID))
		return nil
	}

	if err := send(ctx, order); err != nil {
		if releaseErr := s.ledger.Release(ctx, key); releaseErr != nil {
			s.logger.Warn("Failed to release notification key",
				zap.String("key", key),
				zap.Error(releaseErr))
		}
		return err
	}
	return nil
}

// NotificationKey is the ledger key of one email kind for one payment of
// one order.
func NotificationKey(kind, orderID, paymentID string) string {
	if paymentID == "" {
		return fmt.Sprintf("notify:%s:%s:order", kind, orderID)
	}
	return fmt.Sprintf("notify:%s:%s:%s", kind, orderID, paymentID)
}

// PublishOrderEvent is fire-and-forget; failures are logged.
func (s *NotificationService) PublishOrderEvent(ctx context.Context, event OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ChannelOrderEvents, event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
