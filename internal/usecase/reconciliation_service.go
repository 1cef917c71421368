package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
	"github.com/2sipping0/pixelnextdigital/internal/domain/repository"
)

// Notifier is what reconciliation needs from NotificationService
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order *model.Order, paymentID string) error
	PublishOrderEvent(ctx context.Context, event OrderEvent)
}

// Outcome describes what HandleEvent did with an event
type Outcome struct {
	Status         model.WebhookStatus
	Duplicate      bool
	StatusChanged  bool
	PaymentChanged bool
	Order          *model.Order
	Payment        *model.Payment
}

// ReconciliationService applies verified provider events to orders and
// payment records. It is the only writer of terminal order statuses.
type ReconciliationService struct {
	orders   repository.OrderRepository
	events   repository.WebhookEventRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewReconciliationService(
	orders repository.OrderRepository,
	events repository.WebhookEventRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		orders:   orders,
		events:   events,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleEvent settles the order named by event. Redelivered events that
// already completed are skipped. The returned error is informational:
// callers acknowledge the delivery regardless.
func (s *ReconciliationService) HandleEvent(ctx context.Context, event *provider.WebhookEvent) (*Outcome, error) {
	logger := s.logger.With(
		zap.String("provider", event.Provider),
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.Type),
		zap.String("order_id", event.OrderID))

	webhookProvider := model.WebhookProvider(event.Provider)
	if event.EventID == "" {
		logger.Warn("Webhook event has no id, processing without dedup")
		return s.apply(ctx, event, logger)
	}

	claimed, err := s.events.Claim(ctx, &model.WebhookEvent{
		Provider:  webhookProvider,
		EventID:   event.EventID,
		EventType: event.Type,
		OrderID:   event.OrderID,
		Status:    model.WebhookStatusProcessing,
	})
	if err != nil {
		logger.Warn("Failed to record webhook event, processing anyway", zap.Error(err))
	} else if !claimed {
		logger.Info("Duplicate webhook event skipped")
		return &Outcome{Status: model.WebhookStatusCompleted, Duplicate: true}, nil
	}

	outcome, err := s.apply(ctx, event, logger)
	if finishErr := s.events.Finish(ctx, webhookProvider, event.EventID, outcome.Status, err); finishErr != nil {
		logger.Warn("Failed to finish webhook event", zap.Error(finishErr))
	}
	return outcome, err
}

func (s *ReconciliationService) apply(ctx context.Context, event *provider.WebhookEvent, logger *zap.Logger) (*Outcome, error) {
	var target model.OrderStatus
	switch event.Kind {
	case provider.EventPaymentSucceeded:
		target = model.OrderStatusPaid
	case provider.EventPaymentFailed:
		target = model.OrderStatusPaymentFailed
	default:
		logger.Debug("Unhandled webhook event type")
		return &Outcome{Status: model.WebhookStatusIgnored}, nil
	}

	if event.OrderID == "" {
		logger.Warn("Webhook event has no orderId")
		return &Outcome{Status: model.WebhookStatusIgnored}, nil
	}

	var payment *model.Payment
	if target == model.OrderStatusPaid && event.PaymentID != "" {
		payment = s.paymentFromEvent(event)
	}

	settlement, err := s.orders.Settle(ctx, event.OrderID, target, payment)
	outcome := &Outcome{Status: model.WebhookStatusCompleted}
	if settlement != nil {
		outcome.StatusChanged = settlement.StatusChanged
		outcome.PaymentChanged = settlement.PaymentChanged
		outcome.Order = settlement.Order
		outcome.Payment = settlement.Payment
	}

	switch {
	case err == nil:
	case errors.Is(err, domainErrors.ErrInvalidTransition):
		logger.Warn("Order status transition rejected",
			zap.String("target_status", string(target)),
			zap.Error(err))
		outcome.Status = model.WebhookStatusIgnored
		return outcome, err
	case errors.Is(err, domainErrors.ErrOrderNotFound):
		logger.Warn("Webhook event for unknown order", zap.Bool("payment_recorded", outcome.Payment != nil))
		outcome.Status = model.WebhookStatusFailed
		return outcome, err
	default:
		logger.Error("Failed to settle order", zap.Error(err))
		outcome.Status = model.WebhookStatusFailed
		return outcome, fmt.Errorf("settle order %s: %w", event.OrderID, err)
	}

	logger.Info("Order settled",
		zap.String("status", string(target)),
		zap.Bool("status_changed", outcome.StatusChanged),
		zap.Bool("payment_changed", outcome.PaymentChanged))

	if outcome.StatusChanged {
		s.notifier.PublishOrderEvent(ctx, s.orderEvent(outcome.Order, event))
	}

	if target == model.OrderStatusPaid && outcome.Order != nil {
		if err := s.notifier.NotifyOrderPlaced(ctx, outcome.Order, event.PaymentID); err != nil {
			logger.Error("Paid notification failed", zap.Error(err))
		}
	}
	return outcome, nil
}

func (s *ReconciliationService) paymentFromEvent(event *provider.WebhookEvent) *model.Payment {
	payment := &model.Payment{
		OrderID:   event.OrderID,
		PaymentID: event.PaymentID,
		Verified:  true,
		Amount:    event.Amount,
		Currency:  event.Currency,
		Status:    model.PaymentStatus(event.Status),
	}

	switch model.WebhookProvider(event.Provider) {
	case model.WebhookProviderCoinbase:
		confirmedAt := s.now().UTC()
		payment.PaymentMethod = model.PaymentMethodCrypto
		payment.Status = model.PaymentStatusConfirmed
		payment.Metadata = model.CryptoMeta(model.CryptoMetadata{
			ChargeID:    event.PaymentID,
			ConfirmedAt: &confirmedAt,
		})
	default:
		payment.PaymentMethod = model.PaymentMethodCard
		payment.Metadata = model.CardMeta(event.PaymentID, event.PaymentMethodID)
	}
	return payment
}

func (s *ReconciliationService) orderEvent(order *model.Order, event *provider.WebhookEvent) OrderEvent {
	out := OrderEvent{
		OrderID:    event.OrderID,
		PaymentID:  event.PaymentID,
		Amount:     event.Amount,
		Currency:   event.Currency,
		OccurredAt: s.now().UTC(),
	}
	if order != nil {
		out.Status = order.Status
		out.PaymentMethod = order.PaymentMethod
	}
	if event.Kind == provider.EventPaymentSucceeded {
		out.Type = EventOrderPaid
	} else {
		out.Type = EventOrderPaymentFailed
	}
	return out
}
