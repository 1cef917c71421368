package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
)

// PaymentHandler serves intent/charge creation and optimistic payment records
type PaymentHandler struct {
	card    provider.CardGateway
	crypto  provider.CryptoGateway
	orders  *usecase.OrderService
	baseURL string
	logger  *zap.Logger
}

func NewPaymentHandler(
	card provider.CardGateway,
	crypto provider.CryptoGateway,
	orders *usecase.OrderService,
	baseURL string,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		card:    card,
		crypto:  crypto,
		orders:  orders,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type createIntentRequest struct {
	Amount  int64  `json:"amount"`
	OrderID string `json:"orderId"`
}

// CreatePaymentIntent creates a card payment intent
// POST /api/create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(c echo.Context) error {
	var req createIntentRequest
	if err := c.Bind(&req); err != nil || req.Amount <= 0 || req.OrderID == "" {
		return messageJSON(c, http.StatusBadRequest, "Missing required parameters")
	}

	intent, err := h.card.CreatePaymentIntent(c.Request().Context(), &provider.CreateIntentRequest{
		AmountCents: req.Amount,
		Currency:    "usd",
		OrderID:     req.OrderID,
	})
	if err != nil {
		h.logger.Error("Error creating payment intent",
			zap.String("order_id", req.OrderID),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		return messageJSON(c, http.StatusInternalServerError, providerMessage(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"clientSecret": intent.ClientSecret})
}

// decimalAmount accepts a JSON number or a numeric string
type decimalAmount string

func (a *decimalAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = decimalAmount(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = decimalAmount(n.String())
	return nil
}

type createChargeRequest struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Amount        decimalAmount `json:"amount"`
	OrderID       string        `json:"orderId"`
	CustomerEmail string        `json:"customerEmail"`
	CustomerName  string        `json:"customerName"`
}

// CreateCryptoCharge creates a fixed-price hosted charge
// POST /api/create-crypto-charge
func (h *PaymentHandler) CreateCryptoCharge(c echo.Context) error {
	var req createChargeRequest
	if err := c.Bind(&req); err != nil ||
		req.Name == "" || req.Description == "" || req.Amount == "" || req.OrderID == "" {
		return messageJSON(c, http.StatusBadRequest, "Missing required parameters")
	}

	escaped := url.QueryEscape(req.OrderID)
	charge, err := h.crypto.CreateCharge(c.Request().Context(), &provider.CreateChargeRequest{
		Name:          req.Name,
		Description:   req.Description,
		Amount:        string(req.Amount),
		Currency:      "USD",
		OrderID:       req.OrderID,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		RedirectURL:   fmt.Sprintf("%s/payment/success?orderId=%s", h.baseURL, escaped),
		CancelURL:     fmt.Sprintf("%s/payment/cancel?orderId=%s", h.baseURL, escaped),
	})
	if err != nil {
		h.logger.Error("Error creating crypto charge",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		return messageJSON(c, http.StatusInternalServerError, providerMessage(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"chargeData": charge.Raw})
}

// RecordPayment stores a client-reported payment record
// POST /api/payments
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	var input usecase.PaymentRecordInput
	if err := c.Bind(&input); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  "INVALID_ARGUMENT",
		})
	}

	payment, err := h.orders.RecordOptimisticPayment(c.Request().Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to record payment")
	}
	return c.JSON(http.StatusCreated, payment)
}

func providerMessage(err error) string {
	var providerErr *provider.ProviderError
	if errors.As(err, &providerErr) && providerErr.Message != "" {
		return providerErr.Message
	}
	return "Payment provider request failed"
}
