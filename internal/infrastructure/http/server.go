package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	handlers "github.com/2sipping0/pixelnextdigital/internal/adapter/handler/http"
	"github.com/2sipping0/pixelnextdigital/internal/config"
	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
	"github.com/2sipping0/pixelnextdigital/internal/middleware/auth"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
	"github.com/2sipping0/pixelnextdigital/pkg/logger"
)

// Dependencies are the collaborators the routes are built from. Admins may
// be nil when Supabase auth is not configured.
type Dependencies struct {
	Catalog    *catalog.Catalog
	Card       provider.CardGateway
	Crypto     provider.CryptoGateway
	Orders     *usecase.OrderService
	Reconciler handlers.EventReconciler
	Admins     handlers.AdminAuthenticator
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	deps   Dependencies
}

func NewServer(cfg *config.Config, log *zap.Logger, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.HTTP.WriteTimeout

	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(session.Middleware(auth.NewSessionStore(cfg.Session.Secret, cfg.Service.Environment == "production")))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
		deps:   deps,
	}
	s.setupRoutes()
	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be driven by httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// paymentRateLimiter limits intent and charge creation per client IP
func (s *Server) paymentRateLimiter() echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.config.RateLimit.RequestsPerSecond),
		Burst:     s.config.RateLimit.Burst,
		ExpiresIn: 3 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Unable to identify client"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			s.logger.Warn("Rate limit exceeded",
				zap.String("ip", identifier),
				zap.String("path", c.Path()))
			return c.JSON(http.StatusTooManyRequests, echo.Map{"message": "Too many requests"})
		},
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": config.ServiceName,
		})
	})

	plansHandler := handlers.NewPlansHandler(s.deps.Catalog)
	orderHandler := handlers.NewOrderHandler(s.deps.Orders, s.logger)
	paymentHandler := handlers.NewPaymentHandler(s.deps.Card, s.deps.Crypto, s.deps.Orders, s.config.Service.BaseURL, s.logger)
	webhookHandler := handlers.NewWebhookHandler(s.deps.Card, s.deps.Crypto, s.deps.Reconciler, s.logger)
	adminHandler := handlers.NewAdminHandler(s.deps.Orders, s.deps.Admins, handlers.AdminSessionConfig{
		Name:    s.config.Session.CookieName,
		MaxAge:  s.config.Session.MaxAge,
		BaseURL: s.config.Service.BaseURL,
	}, s.logger)

	api := s.echo.Group("/api")

	// Public storefront routes
	api.GET("/plans", plansHandler.GetPlans)
	api.POST("/orders", orderHandler.CreateOrder)
	api.POST("/orders/identity", orderHandler.NewIdentity)
	api.POST("/orders/confirm", orderHandler.ConfirmOrder)
	api.POST("/payments", paymentHandler.RecordPayment)

	limited := s.paymentRateLimiter()
	api.POST("/create-payment-intent", paymentHandler.CreatePaymentIntent, limited)
	api.POST("/create-crypto-charge", paymentHandler.CreateCryptoCharge, limited)

	// Provider webhooks
	api.POST("/webhook/stripe", webhookHandler.HandleStripe)
	api.POST("/webhook/coinbase", webhookHandler.HandleCoinbase)

	// Admin session
	api.POST("/admin/login", adminHandler.Login)
	api.POST("/auth/signout", adminHandler.SignOut)

	// Protected admin routes
	admin := api.Group("/admin", auth.JWTMiddleware(auth.JWTConfig{
		Secret:      s.config.Supabase.JWTSecret,
		SessionName: s.config.Session.CookieName,
		Logger:      s.logger,
	}))
	admin.GET("/orders", adminHandler.ListOrders)
	admin.GET("/orders/:id", adminHandler.GetOrder)
}
