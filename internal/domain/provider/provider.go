package provider

import (
	"context"
	"encoding/json"
	"time"
)

// CardGateway creates card payment intents and verifies card webhooks (Stripe).
type CardGateway interface {
	CreatePaymentIntent(ctx context.Context, req *CreateIntentRequest) (*CreateIntentResponse, error)

	// ParseWebhook verifies the signature over the raw payload and decodes the event.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// CryptoGateway creates hosted crypto charges and verifies crypto webhooks (Coinbase Commerce).
type CryptoGateway interface {
	CreateCharge(ctx context.Context, req *CreateChargeRequest) (*Charge, error)

	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// CreateIntentRequest asks for a card payment intent
type CreateIntentRequest struct {
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
}

// CreateIntentResponse carries what the client needs to confirm the intent
type CreateIntentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

// CreateChargeRequest asks for a fixed-price hosted charge
type CreateChargeRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Amount        string `json:"amount"` // decimal USD, e.g. "900.00"
	Currency      string `json:"currency"`
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	RedirectURL   string `json:"redirect_url"`
	CancelURL     string `json:"cancel_url"`
}

// Charge is a created hosted charge. Raw is the provider's charge object as
// returned, passed through to clients untouched.
type Charge struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	HostedURL string          `json:"hosted_url"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// EventKind is the normalized meaning of a webhook event
type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventIgnored          EventKind = "ignored"
)

// WebhookEvent is a verified provider event reduced to what reconciliation needs
type WebhookEvent struct {
	Provider        string    `json:"provider"`
	EventID         string    `json:"event_id"`
	Type            string    `json:"type"`
	Kind            EventKind `json:"kind"`
	OrderID         string    `json:"order_id,omitempty"`
	PaymentID       string    `json:"payment_id,omitempty"`
	Amount          string    `json:"amount,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	Status          string    `json:"status,omitempty"`
	PaymentMethodID string    `json:"payment_method_id,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ProviderError is returned by gateway calls
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Gateway error codes
const (
	CodeMarshal   = "MARSHAL_ERROR"
	CodeRequest   = "REQUEST_ERROR"
	CodeAPI       = "API_ERROR"
	CodeResponse  = "RESPONSE_ERROR"
	CodeParse     = "PARSE_ERROR"
	CodeSignature = "SIGNATURE_ERROR"
	CodeConfig    = "CONFIG_ERROR"
)

// CardConfirmer confirms a payment intent from the paying client's side,
// holding only the client secret (Stripe publishable-key flow).
type CardConfirmer interface {
	ConfirmCardPayment(ctx context.Context, req *ConfirmCardRequest) (*CardConfirmation, error)
}

// BillingDetails are attached to the payment method on confirmation
type BillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ConfirmCardRequest carries a tokenized card or an existing payment method id
type ConfirmCardRequest struct {
	ClientSecret    string         `json:"client_secret"`
	CardToken       string         `json:"card_token,omitempty"`
	PaymentMethodID string         `json:"payment_method_id,omitempty"`
	Billing         BillingDetails `json:"billing"`
	ReturnURL       string         `json:"return_url,omitempty"`
}

// CardConfirmation is the intent state after confirmation
type CardConfirmation struct {
	IntentID        string `json:"intent_id"`
	Status          string `json:"status"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	AmountCents     int64  `json:"amount"`
	Currency        string `json:"currency"`
}
