// Command orderctl places and pays orders against a running order service
// and watches order events.
//
//	orderctl pay-card   -plan Professional -business "Acme" -email a@acme.test -phone 555 -card-token tok_visa
//	orderctl pay-crypto -plan Basic -business "Acme" -email a@acme.test -phone 555
//	orderctl watch
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/checkout"
	"github.com/2sipping0/pixelnextdigital/internal/config"
	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	"github.com/2sipping0/pixelnextdigital/internal/domain/orderid"
	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
	"github.com/2sipping0/pixelnextdigital/internal/infrastructure/provider/stripe"
	"github.com/2sipping0/pixelnextdigital/internal/usecase"
	"github.com/2sipping0/pixelnextdigital/pkg/logger"
	"github.com/2sipping0/pixelnextdigital/pkg/messaging"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: orderctl <pay-card|pay-crypto|watch> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "pay-card", "pay-crypto":
		err = pay(ctx, cfg, zapLogger, os.Args[1], os.Args[2:])
	case "watch":
		err = watch(ctx, cfg, zapLogger)
	default:
		usage()
	}
	if err != nil {
		zapLogger.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func pay(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	apiURL := fs.String("api", fmt.Sprintf("http://localhost:%d", cfg.Server.HTTP.Port), "order service base URL")
	plan := fs.String("plan", "Basic", "plan name")
	business := fs.String("business", "", "business name")
	emailAddr := fs.String("email", "", "customer email")
	phone := fs.String("phone", "", "customer phone")
	details := fs.String("details", "", "website details")
	cardToken := fs.String("card-token", "", "tokenized card (pay-card)")
	paymentMethodID := fs.String("payment-method", "", "saved payment method id (pay-card)")
	_ = fs.Parse(args)

	// The identity is assigned once and reused for every call below
	identity := orderid.NewGenerator().New()

	method := "card"
	if command == "pay-crypto" {
		method = "crypto"
	}
	draft := &usecase.OrderDraft{
		OrderID:        identity.OrderID,
		OrderDate:      identity.OrderDate,
		BusinessName:   *business,
		Email:          *emailAddr,
		Phone:          *phone,
		WebsiteDetails: *details,
		SelectedPlan:   *plan,
		PaymentMethod:  method,
	}

	api := checkout.NewClient(*apiURL, zapLogger)
	order, err := api.CreateOrder(ctx, draft)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	zapLogger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("total_amount", order.TotalAmount))

	plans := catalog.Default()
	var result *checkout.Result
	if command == "pay-crypto" {
		result, err = checkout.NewCryptoInitiator(api, plans, zapLogger).Pay(ctx, order)
	} else {
		var confirmer provider.CardConfirmer
		if cfg.Stripe.PublishableKey != "" {
			confirmer = stripe.NewIntentConfirmer(cfg.Stripe.PublishableKey)
		}
		card := &checkout.CardInput{Token: *cardToken, PaymentMethodID: *paymentMethodID}
		result, err = checkout.NewCardInitiator(confirmer, api, plans, cfg.Service.BaseURL, zapLogger).Pay(ctx, order, card)
	}
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("payment failed: %s", result.Error)
	}

	if result.HostedURL != "" {
		fmt.Printf("Complete the payment at %s\n", result.HostedURL)
		return printJSON(result)
	}

	status, err := api.ConfirmOrder(ctx, draft, result.PaymentID)
	if err != nil {
		zapLogger.Warn("Order confirmation failed", zap.Error(err))
	} else if status == "pending" {
		fmt.Println("Payment received, confirming your payment...")
	}
	return printJSON(result)
}

func watch(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	client, err := messaging.NewRedisClient(ctx, messaging.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Buffer:   16,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	messages, err := client.Subscribe(ctx, usecase.ChannelOrderEvents)
	if err != nil {
		return err
	}
	zapLogger.Info("Watching order events", zap.String("channel", usecase.ChannelOrderEvents))

	for msg := range messages {
		var event usecase.OrderEvent
		if err := msg.Decode(&event); err != nil {
			zapLogger.Warn("Skipping malformed event", zap.Error(err))
			continue
		}
		fmt.Printf("%s  %-22s %s  %s %s %s\n",
			event.OccurredAt.Format("2006-01-02 15:04:05"),
			event.Type, event.OrderID, event.PaymentID, event.Amount, event.Currency)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
