package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/supabase"
	"github.com/2sipping0/pixelnextdigital/internal/middleware/auth"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
)

// AdminAuthenticator signs administrators in and out
type AdminAuthenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AdminSessionConfig names the cookie session and where sign-out lands
type AdminSessionConfig struct {
	Name    string
	MaxAge  int
	BaseURL string
}

type AdminHandler struct {
	orders  *usecase.OrderService
	auth    AdminAuthenticator
	session AdminSessionConfig
	logger  *zap.Logger
}

func NewAdminHandler(orders *usecase.OrderService, authenticator AdminAuthenticator, session AdminSessionConfig, logger *zap.Logger) *AdminHandler {
	session.BaseURL = strings.TrimRight(session.BaseURL, "/")
	return &AdminHandler{
		orders:  orders,
		auth:    authenticator,
		session: session,
		logger:  logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login exchanges email and password for an admin session
// POST /api/admin/login
func (h *AdminHandler) Login(c echo.Context) error {
	if h.auth == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "Admin authentication is not configured",
			"code":  "CONFIG_MISSING",
		})
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Email and password are required",
			"code":  "INVALID_ARGUMENT",
		})
	}

	sess, err := h.auth.SignInWithPassword(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, supabase.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"error": "Invalid login credentials",
				"code":  "UNAUTHENTICATED",
			})
		}
		h.logger.Error("Admin sign-in failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error": "Sign-in is temporarily unavailable",
			"code":  "UPSTREAM",
		})
	}

	if err := auth.SaveAccessToken(c, h.session.Name, sess.AccessToken, h.session.MaxAge); err != nil {
		h.logger.Error("Failed to save admin session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create session",
			"code":  "INTERNAL",
		})
	}

	h.logger.Info("Admin signed in", zap.String("user_id", sess.User.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    echo.Map{"id": sess.User.ID, "email": sess.User.Email},
	})
}

// SignOut revokes the Supabase session, clears the cookie and redirects
// to the login page
// POST /api/auth/signout
func (h *AdminHandler) SignOut(c echo.Context) error {
	if token := auth.AccessToken(c, h.session.Name); token != "" && h.auth != nil {
		if err := h.auth.SignOut(c.Request().Context(), token); err != nil {
			h.logger.Warn("Supabase sign-out failed", zap.Error(err))
		}
	}
	if err := auth.ClearSession(c, h.session.Name); err != nil {
		h.logger.Warn("Failed to clear admin session", zap.Error(err))
	}
	return c.Redirect(http.StatusSeeOther, h.session.BaseURL+"/admin/login")
}

// ListOrders returns all orders, newest first
// GET /api/admin/orders
func (h *AdminHandler) ListOrders(c echo.Context) error {
	orders, err := h.orders.List(c.Request().Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list orders")
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// GetOrder returns one order with its payment records
// GET /api/admin/orders/:id
func (h *AdminHandler) GetOrder(c echo.Context) error {
	detail, err := h.orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load order")
	}
	return c.JSON(http.StatusOK, detail)
}
