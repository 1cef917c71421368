package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
)

const providerName = "stripe"

// intentAPI is the part of the payment intents client this package calls.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
}

// StripeProvider implements CardGateway with the Stripe API
type StripeProvider struct {
	intents       intentAPI
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeProvider creates a Stripe provider using the secret key
func NewStripeProvider(secretKey, webhookSecret string, logger *zap.Logger) *StripeProvider {
	sc := client.New(secretKey, nil)
	return &StripeProvider{
		intents:       sc.PaymentIntents,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// CreatePaymentIntent creates a USD intent with automatic payment methods,
// tagged with the order id
func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, req *provider.CreateIntentRequest) (*provider.CreateIntentResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("orderId", req.OrderID)

	pi, err := s.intents.New(params)
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.String("order_id", req.OrderID),
			zap.Int64("amount", req.AmountCents),
			zap.Error(err))
		return nil, toProviderError(err, "Failed to create payment intent")
	}

	s.logger.Info("Payment intent created",
		zap.String("order_id", req.OrderID),
		zap.String("payment_intent_id", pi.ID))

	return &provider.CreateIntentResponse{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes payment intent events
func (s *StripeProvider) ParseWebhook(payload []byte, signature string) (*provider.WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.CodeSignature,
			Message: "Webhook signature verification failed",
			Details: err.Error(),
		}
	}

	result := &provider.WebhookEvent{
		Provider:   providerName,
		EventID:    event.ID,
		Type:       string(event.Type),
		Kind:       provider.EventIgnored,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		result.Kind = provider.EventPaymentSucceeded
	case stripe.EventTypePaymentIntentPaymentFailed:
		result.Kind = provider.EventPaymentFailed
	default:
		return result, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.CodeParse,
			Message: "Failed to parse payment intent",
			Details: err.Error(),
		}
	}

	result.OrderID = pi.Metadata["orderId"]
	result.PaymentID = pi.ID
	result.Amount = catalog.CentsToUSD(pi.Amount)
	result.Currency = string(pi.Currency)
	result.Status = string(pi.Status)
	if pi.PaymentMethod != nil {
		result.PaymentMethodID = pi.PaymentMethod.ID
	}
	return result, nil
}

// IntentConfirmer implements CardConfirmer with a publishable key. It
// confirms an intent the same way the browser SDK does, by presenting the
// client secret.
type IntentConfirmer struct {
	intents intentAPI
}

func NewIntentConfirmer(publishableKey string) *IntentConfirmer {
	return &IntentConfirmer{intents: client.New(publishableKey, nil).PaymentIntents}
}

func (c *IntentConfirmer) ConfirmCardPayment(ctx context.Context, req *provider.ConfirmCardRequest) (*provider.CardConfirmation, error) {
	intentID := IntentIDFromClientSecret(req.ClientSecret)
	if intentID == "" {
		return nil, &provider.ProviderError{Code: provider.CodeRequest, Message: "Invalid client secret"}
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	params.AddExtra("client_secret", req.ClientSecret)
	if req.ReturnURL != "" {
		params.ReturnURL = stripe.String(req.ReturnURL)
	}

	if req.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(req.PaymentMethodID)
	} else {
		params.AddExtra("payment_method_data[type]", "card")
		params.AddExtra("payment_method_data[card][token]", req.CardToken)
		params.AddExtra("payment_method_data[billing_details][name]", req.Billing.Name)
		params.AddExtra("payment_method_data[billing_details][email]", req.Billing.Email)
		if req.Billing.Phone != "" {
			params.AddExtra("payment_method_data[billing_details][phone]", req.Billing.Phone)
		}
	}

	pi, err := c.intents.Confirm(intentID, params)
	if err != nil {
		return nil, toProviderError(err, "Payment processing failed")
	}

	confirmation := &provider.CardConfirmation{
		IntentID:    pi.ID,
		Status:      string(pi.Status),
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
	}
	if pi.PaymentMethod != nil {
		confirmation.PaymentMethodID = pi.PaymentMethod.ID
	}
	return confirmation, nil
}

// IntentIDFromClientSecret returns the pi_… prefix of a client secret.
func IntentIDFromClientSecret(secret string) string {
	idx := strings.Index(secret, "_secret_")
	if idx <= 0 {
		return ""
	}
	return secret[:idx]
}

func toProviderError(err error, fallback string) *provider.ProviderError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = fallback
		}
		return &provider.ProviderError{
			Code:    provider.CodeAPI,
			Message: msg,
			Details: string(stripeErr.Code),
		}
	}
	return &provider.ProviderError{
		Code:    provider.CodeRequest,
		Message: fallback,
		Details: err.Error(),
	}
}
