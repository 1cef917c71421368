package checkout

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

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
)

const requestTimeout = 20 * time.Second

// APIError is a non-2xx answer from the order service
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// PaymentRecord is the body of POST /api/payments
type PaymentRecord struct {
	OrderID       string         `json:"orderId"`
	PaymentMethod string         `json:"paymentMethod"`
	PaymentID     string         `json:"paymentId"`
	Amount        string         `json:"amount"`
	Currency      string         `json:"currency"`
	Status        string         `json:"status"`
	Metadata      model.Metadata `json:"metadata"`
}

// ChargeRequest is the body of POST /api/create-crypto-charge
type ChargeRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
}

// ChargeData is the fields of a created charge the initiator reads
type ChargeData struct {
	ID        string     `json:"id"`
	Code      string     `json:"code"`
	HostedURL string     `json:"hosted_url"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Client calls the order service's storefront endpoints
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

// CreateOrder stores a draft as a pending order
func (c *Client) CreateOrder(ctx context.Context, draft *usecase.OrderDraft) (*model.Order, error) {
	var order model.Order
	if err := c.post(ctx, "/api/orders", draft, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ConfirmOrder runs the success path and returns the advisory order status
func (c *Client) ConfirmOrder(ctx context.Context, draft *usecase.OrderDraft, paymentID string) (model.OrderStatus, error) {
	body := struct {
		*usecase.OrderDraft
		PaymentID string `json:"paymentId"`
	}{draft, paymentID}

	var resp struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := c.post(ctx, "/api/orders/confirm", body, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// CreatePaymentIntent returns the client secret of a new intent
func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, orderID string) (string, error) {
	var resp struct {
		ClientSecret string `json:"clientSecret"`
	}
	err := c.post(ctx, "/api/create-payment-intent", map[string]interface{}{
		"amount":  amountCents,
		"orderId": orderID,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ClientSecret == "" {
		return "", &APIError{Status: http.StatusOK, Message: "Missing client secret"}
	}
	return resp.ClientSecret, nil
}

// CreateCryptoCharge creates a hosted charge
func (c *Client) CreateCryptoCharge(ctx context.Context, req *ChargeRequest) (*ChargeData, error) {
	var resp struct {
		ChargeData *ChargeData `json:"chargeData"`
	}
	if err := c.post(ctx, "/api/create-crypto-charge", req, &resp); err != nil {
		return nil, err
	}
	if resp.ChargeData == nil || resp.ChargeData.ID == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "Missing charge data"}
	}
	return resp.ChargeData, nil
}

// RecordPayment writes an optimistic payment record
func (c *Client) RecordPayment(ctx context.Context, record *PaymentRecord) error {
	return c.post(ctx, "/api/payments", record, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Order service request failed",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		message := errResp.Message
		if message == "" {
			message = errResp.Error
		}
		c.logger.Warn("Order service returned an error",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status_code", resp.StatusCode))
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
