package coinbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
)

const (
	providerName   = "coinbase"
	defaultAPIURL  = "https://api.commerce.coinbase.com"
	apiVersion     = "2018-03-22"
	requestTimeout = 15 * time.Second

	EventChargeConfirmed = "charge:confirmed"
	EventChargeFailed    = "charge:failed"
)

// CoinbaseProvider implements CryptoGateway against Coinbase Commerce
type CoinbaseProvider struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	client        *http.Client
	logger        *zap.Logger
	now           func() time.Time
}

// NewCoinbaseProvider creates a Coinbase Commerce provider
func NewCoinbaseProvider(apiKey, webhookSecret, baseURL string, logger *zap.Logger) *CoinbaseProvider {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return &CoinbaseProvider{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{Timeout: requestTimeout},
		logger:        logger,
		now:           time.Now,
	}
}

type money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type chargeRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	LocalPrice  money             `json:"local_price"`
	PricingType string            `json:"pricing_type"`
	Metadata    map[string]string `json:"metadata"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	CancelURL   string            `json:"cancel_url,omitempty"`
}

type chargeData struct {
	ID        string         `json:"id"`
	Code      string         `json:"code"`
	HostedURL string         `json:"hosted_url"`
	ExpiresAt *time.Time     `json:"expires_at"`
	Metadata  map[string]any `json:"metadata"`
	Pricing   struct {
		Local money `json:"local"`
	} `json:"pricing"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCharge creates a fixed-price charge
// POST /charges
func (c *CoinbaseProvider) CreateCharge(ctx context.Context, req *provider.CreateChargeRequest) (*provider.Charge, error) {
	if c.apiKey == "" {
		return nil, &provider.ProviderError{
			Code:    provider.CodeConfig,
			Message: "Coinbase API key is not configured",
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	body := chargeRequest{
		Name:        req.Name,
		Description: req.Description,
		LocalPrice:  money{Amount: req.Amount, Currency: currency},
		PricingType: "fixed_price",
		Metadata: map[string]string{
			"orderId":       req.OrderID,
			"customerEmail": req.CustomerEmail,
			"customerName":  req.CustomerName,
		},
		RedirectURL: req.RedirectURL,
		CancelURL:   req.CancelURL,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.CodeMarshal,
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}

	url := fmt.Sprintf("%s/charges", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.CodeRequest,
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-CC-Api-Key", c.apiKey)
	httpReq.Header.Set("X-CC-Version", apiVersion)
	httpReq.Header.Set("X-Request-Id", requestID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Coinbase charge request failed",
			zap.String("order_id", req.OrderID),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, &provider.ProviderError{
			Code:    provider.CodeAPI,
			Message: "Coinbase Commerce API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.CodeResponse,
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		_ = json.Unmarshal(respBody, &errResp)

		c.logger.Error("Coinbase charge creation failed",
			zap.String("order_id", req.OrderID),
			zap.String("request_id", requestID),
			zap.Int("status_code", resp.StatusCode),
			zap.String("error_type", errResp.Error.Type))

		message := errResp.Error.Message
		if message == "" {
			message = fmt.Sprintf("Coinbase Commerce returned status %d", resp.StatusCode)
		}
		return nil, &provider.ProviderError{
			Code:    provider.CodeAPI,
			Message: message,
			Details: errResp.Error.Type,
		}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil || len(envelope.Data) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.CodeParse,
			Message: "Failed to parse response",
			Details: fmt.Sprint(err),
		}
	}

	var data chargeData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.CodeParse,
			Message: "Failed to parse charge",
			Details: err.Error(),
		}
	}

	c.logger.Info("Coinbase charge created",
		zap.String("order_id", req.OrderID),
		zap.String("charge_id", data.ID),
		zap.String("charge_code", data.Code))

	return &provider.Charge{
		ID:        data.ID,
		Code:      data.Code,
		HostedURL: data.HostedURL,
		ExpiresAt: data.ExpiresAt,
		Raw:       envelope.Data,
	}, nil
}

type webhookEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt *time.Time      `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

type webhookEnvelope struct {
	ID           string        `json:"id"`
	ScheduledFor *time.Time    `json:"scheduled_for"`
	Event        *webhookEvent `json:"event"`
}

// ParseWebhook verifies X-CC-Webhook-Signature and decodes the event.
// Both the delivery envelope and a bare event object are accepted.
func (c *CoinbaseProvider) ParseWebhook(payload []byte, signature string) (*provider.WebhookEvent, error) {
	if c.webhookSecret == "" {
		return nil, &provider.ProviderError{
			Code:    provider.CodeConfig,
			Message: "Coinbase webhook secret is not configured",
		}
	}
	if !VerifySignature(payload, signature, c.webhookSecret) {
		return nil, &provider.ProviderError{
			Code:    provider.CodeSignature,
			Message: "Invalid signature",
		}
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, &provider.ProviderError{
			Code:    provider.CodeParse,
			Message: "Invalid webhook payload",
			Details: err.Error(),
		}
	}

	event := envelope.Event
	if event == nil {
		var bare webhookEvent
		if err := json.Unmarshal(payload, &bare); err != nil {
			return nil, &provider.ProviderError{
				Code:    provider.CodeParse,
				Message: "Invalid webhook payload",
				Details: err.Error(),
			}
		}
		event = &bare
	}
	if event.Type == "" {
		return nil, &provider.ProviderError{
			Code:    provider.CodeParse,
			Message: "Invalid webhook payload",
			Details: "missing event type",
		}
	}

	eventID := event.ID
	if eventID == "" {
		eventID = envelope.ID
	}

	result := &provider.WebhookEvent{
		Provider:   providerName,
		EventID:    eventID,
		Type:       event.Type,
		Kind:       provider.EventIgnored,
		OccurredAt: c.now().UTC(),
	}
	if event.CreatedAt != nil {
		result.OccurredAt = event.CreatedAt.UTC()
	}

	switch event.Type {
	case EventChargeConfirmed:
		result.Kind = provider.EventPaymentSucceeded
		result.Status = "confirmed"
	case EventChargeFailed:
		result.Kind = provider.EventPaymentFailed
		result.Status = "failed"
	default:
		return result, nil
	}

	var data chargeData
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return nil, &provider.ProviderError{
				Code:    provider.CodeParse,
				Message: "Invalid charge data",
				Details: err.Error(),
			}
		}
	}

	result.OrderID, _ = data.Metadata["orderId"].(string)
	result.PaymentID = data.ID
	result.Amount = data.Pricing.Local.Amount
	result.Currency = data.Pricing.Local.Currency
	if result.EventID == "" && data.ID != "" {
		// bare deliveries may omit the id; one charge settles once per type
		result.EventID = event.Type + ":" + data.ID
	}
	return result, nil
}
