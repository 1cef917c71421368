package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
)

const (
	msgCardMissing       = "Card element not found"
	msgPaymentFailed     = "Payment processing failed"
	intentStatusComplete = "succeeded"
)

// ErrCardMissing is returned when Pay is called without card input
var ErrCardMissing = errors.New("card element not found")

// Result is the outcome of a payment attempt. It is not authoritative;
// webhooks decide the order status.
type Result struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	ChargeID  string `json:"chargeId,omitempty"`
	HostedURL string `json:"hostedUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

func failed(message string) *Result {
	return &Result{Success: false, Error: message}
}

// CardInput is a tokenized card or a saved payment method
type CardInput struct {
	Token           string
	PaymentMethodID string
}

func (c *CardInput) empty() bool {
	return c == nil || (c.Token == "" && c.PaymentMethodID == "")
}

// CardInitiator pays an order by card
type CardInitiator struct {
	confirmer provider.CardConfirmer
	api       *Client
	plans     *catalog.Catalog
	baseURL   string
	logger    *zap.Logger
}

func NewCardInitiator(confirmer provider.CardConfirmer, api *Client, plans *catalog.Catalog, baseURL string, logger *zap.Logger) *CardInitiator {
	return &CardInitiator{
		confirmer: confirmer,
		api:       api,
		plans:     plans,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Pay creates an intent for the order's plan, confirms it with the card and
// records the result optimistically. The returned error covers missing
// inputs only; payment failures come back in Result.
func (i *CardInitiator) Pay(ctx context.Context, order *model.Order, card *CardInput) (*Result, error) {
	if i.confirmer == nil {
		return nil, domainErrors.ErrProviderNotLoaded
	}
	if card.empty() {
		return failed(msgCardMissing), ErrCardMissing
	}

	cents, err := i.plans.PriceCents(order.SelectedPlan)
	if err != nil {
		return nil, err
	}

	logger := i.logger.With(zap.String("order_id", order.OrderID))

	clientSecret, err := i.api.CreatePaymentIntent(ctx, cents, order.OrderID)
	if err != nil {
		logger.Warn("Failed to create payment intent", zap.Error(err))
		return failed(err.Error()), nil
	}

	confirmation, err := i.confirmer.ConfirmCardPayment(ctx, &provider.ConfirmCardRequest{
		ClientSecret:    clientSecret,
		CardToken:       card.Token,
		PaymentMethodID: card.PaymentMethodID,
		Billing: provider.BillingDetails{
			Name:  order.BusinessName,
			Email: order.Email,
			Phone: order.Phone,
		},
		ReturnURL: fmt.Sprintf("%s/payment/success?orderId=%s", i.baseURL, url.QueryEscape(order.OrderID)),
	})
	if err != nil {
		logger.Warn("Card confirmation failed", zap.Error(err))
		return failed(confirmMessage(err)), nil
	}
	if confirmation.Status != intentStatusComplete {
		logger.Warn("Card payment not completed", zap.String("status", confirmation.Status))
		return failed(msgPaymentFailed), nil
	}

	amount := confirmation.AmountCents
	if amount == 0 {
		amount = cents
	}
	record := &PaymentRecord{
		OrderID:       order.OrderID,
		PaymentMethod: "card",
		PaymentID:     confirmation.IntentID,
		Amount:        catalog.CentsToUSD(amount),
		Currency:      confirmation.Currency,
		Status:        confirmation.Status,
		Metadata:      model.CardMeta(confirmation.IntentID, confirmation.PaymentMethodID),
	}
	if err := i.api.RecordPayment(ctx, record); err != nil {
		logger.Warn("Failed to record card payment", zap.String("payment_id", record.PaymentID), zap.Error(err))
	}

	logger.Info("Card payment confirmed", zap.String("payment_id", confirmation.IntentID))
	return &Result{Success: true, PaymentID: confirmation.IntentID}, nil
}

func confirmMessage(err error) string {
	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) && providerErr.Message != "" {
		return providerErr.Message
	}
	return msgPaymentFailed
}
