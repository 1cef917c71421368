package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	adapterRepo "github.com/2sipping0/pixelnextdigital/internal/adapter/repository"
	"github.com/2sipping0/pixelnextdigital/internal/config"
	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	"github.com/2sipping0/pixelnextdigital/internal/domain/orderid"
	domainRepo "github.com/2sipping0/pixelnextdigital/internal/domain/repository"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/database"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/email"
	httpServer "github.com/2sipping0/pixelnextdigital/internal/infrastructure/http"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/provider/coinbase"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/provider/stripe"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/supabase"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
	"github.com/2sipping0/pixelnextdigital/pkg/logger"
	"github.com/2sipping0/pixelnextdigital/pkg/messaging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
		Fields: map[string]string{
			"service":     cfg.Service.Name,
			"environment": cfg.Service.Environment,
		},
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize the order store
	repos, err := database.NewRepositories(context.Background(), cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize order store", zap.Error(err))
	}
	defer func() {
		if err := repos.Close(zapLogger); err != nil {
			zapLogger.Error("Failed to close order store", zap.Error(err))
		}
	}()

	// Redis backs the notification ledger and order events when enabled
	var (
		ledger    domainRepo.NotificationLedger = adapterRepo.NewMemoryNotificationLedger()
		publisher messaging.Publisher
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			zapLogger.Warn("Redis unavailable; using in-process notification ledger",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err))
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			ledger = adapterRepo.NewRedisNotificationLedger(rdb, config.ServiceName+":")
			publisher = messaging.NewRedisClientFrom(rdb)
			zapLogger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// Email is optional; confirmation requests fail with 503 without it
	var mailer usecase.OrderMailer
	if cfg.Email.Configured() {
		mailer = email.NewMailer(email.NewResendSender(cfg.Email.ResendAPIKey), email.MailerConfig{
			From:            cfg.Email.From,
			AdminFrom:       cfg.Email.AdminFrom,
			AdminRecipients: cfg.Email.AdminRecipients,
			AdminPortalURL:  cfg.Email.AdminPortalURL,
		}, zapLogger)
	} else {
		zapLogger.Warn("Resend API key is not configured; order emails are disabled")
	}

	if cfg.Stripe.SecretKey == "" || cfg.Stripe.WebhookSecret == "" {
		zapLogger.Warn("Stripe is not fully configured")
	}
	if cfg.Coinbase.APIKey == "" || cfg.Coinbase.WebhookSecret == "" {
		zapLogger.Warn("Coinbase Commerce is not fully configured")
	}

	plans := catalog.Default()
	notifications := usecase.NewNotificationService(mailer, ledger, publisher, zapLogger)
	deps := httpServer.Dependencies{
		Catalog:    plans,
		Card:       stripe.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, zapLogger),
		Crypto:     coinbase.NewCoinbaseProvider(cfg.Coinbase.APIKey, cfg.Coinbase.WebhookSecret, cfg.Coinbase.APIURL, zapLogger),
		Orders:     usecase.NewOrderService(repos.Orders, plans, orderid.NewGenerator(), notifications, zapLogger),
		Reconciler: usecase.NewReconciliationService(repos.Orders, repos.WebhookEvents, notifications, zapLogger),
	}
	if cfg.Supabase.Configured() {
		deps.Admins = supabase.NewAuthClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, zapLogger)
	} else {
		zapLogger.Warn("Supabase auth is not configured; admin sign-in is disabled")
	}
	if cfg.Session.Secret == "" {
		zapLogger.Warn("Session secret is not configured; admin sessions cannot be saved")
	}

	httpSrv := httpServer.NewServer(cfg, zapLogger, deps)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}
