package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
)

const maxWebhookBody = 1 << 20

// EventReconciler applies verified provider events
type EventReconciler interface {
	HandleEvent(ctx context.Context, event *provider.WebhookEvent) (*usecase.Outcome, error)
}

// WebhookHandler receives Stripe and Coinbase Commerce webhooks
type WebhookHandler struct {
	card       provider.CardGateway
	crypto     provider.CryptoGateway
	reconciler EventReconciler
	logger     *zap.Logger
}

func NewWebhookHandler(
	card provider.CardGateway,
	crypto provider.CryptoGateway,
	reconciler EventReconciler,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		card:       card,
		crypto:     crypto,
		reconciler: reconciler,
		logger:     logger,
	}
}

// HandleStripe verifies and applies a Stripe event
// POST /api/webhook/stripe
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return messageJSON(c, http.StatusBadRequest, "Webhook Error: unreadable body")
	}

	event, err := h.card.ParseWebhook(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("Stripe webhook rejected", zap.Error(err))
		return messageJSON(c, http.StatusBadRequest, "Webhook Error: "+err.Error())
	}

	return h.apply(c, event)
}

// HandleCoinbase verifies and applies a Coinbase Commerce event
// POST /api/webhook/coinbase
func (h *WebhookHandler) HandleCoinbase(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("Error reading request body", zap.Error(err))
		return messageJSON(c, http.StatusBadRequest, "Invalid webhook payload")
	}

	event, err := h.crypto.ParseWebhook(body, c.Request().Header.Get("X-CC-Webhook-Signature"))
	if err != nil {
		var providerErr *provider.ProviderError
		errors.As(err, &providerErr)

		switch {
		case providerErr != nil && providerErr.Code == provider.CodeSignature:
			h.logger.Warn("Coinbase webhook signature mismatch")
			return messageJSON(c, http.StatusBadRequest, "Invalid signature")
		case providerErr != nil && providerErr.Code == provider.CodeConfig:
			h.logger.Error("Coinbase webhook secret is not configured")
			return messageJSON(c, http.StatusInternalServerError, "Webhook secret is not configured")
		default:
			h.logger.Warn("Coinbase webhook payload rejected", zap.Error(err))
			return messageJSON(c, http.StatusBadRequest, "Invalid webhook payload")
		}
	}

	return h.apply(c, event)
}

// apply acknowledges every verified event; processing failures are logged.
func (h *WebhookHandler) apply(c echo.Context, event *provider.WebhookEvent) error {
	logger := h.logger.With(
		zap.String("provider", event.Provider),
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.Type),
		zap.String("order_id", event.OrderID))

	logger.Info("Webhook event received")

	outcome, err := h.reconciler.HandleEvent(c.Request().Context(), event)
	if err != nil {
		logger.Warn("Webhook event not applied", zap.Error(err))
	} else if outcome != nil {
		logger.Debug("Webhook event processed",
			zap.String("status", string(outcome.Status)),
			zap.Bool("duplicate", outcome.Duplicate))
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
