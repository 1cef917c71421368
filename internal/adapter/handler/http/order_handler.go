package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/usecase"
	pkgErrors "github.com/2sipping0/pixelnextdigital/pkg/errors"
)

type OrderHandler struct {
	orders *usecase.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders *usecase.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// NewIdentity hands out an order number and display date
// POST /api/orders/identity
func (h *OrderHandler) NewIdentity(c echo.Context) error {
	return c.JSON(http.StatusOK, h.orders.NewIdentity())
}

// CreateOrder stores a validated draft as a pending order
// POST /api/orders
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var draft usecase.OrderDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  pkgErrors.ErrInvalidArgument,
		})
	}

	order, err := h.orders.CreateDraft(c.Request().Context(), &draft)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create order")
	}
	return c.JSON(http.StatusCreated, order)
}

type confirmOrderRequest struct {
	usecase.OrderDraft
	PaymentID string `json:"paymentId"`
}

// ConfirmOrder runs the client-side success path: persist if needed and
// send the order emails
// POST /api/orders/confirm
func (h *OrderHandler) ConfirmOrder(c echo.Context) error {
	var req confirmOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Invalid request body"})
	}

	result, err := h.orders.Confirm(c.Request().Context(), &req.OrderDraft, req.PaymentID)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotConfigured) {
			h.logger.Error("Email service is not configured")
			return c.JSON(http.StatusServiceUnavailable, echo.Map{
				"success": false,
				"error":   "Email service configuration error",
			})
		}

		resp := pkgErrors.ToResponse(err, "Failed to confirm order")
		pkgErrors.Log(h.logger, err, "Order confirmation failed", zap.String("order_id", req.OrderID))
		return c.JSON(resp.Status, echo.Map{"success": false, "error": resp.Message})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"orderId": result.OrderID,
		"status":  result.Status,
	})
}
