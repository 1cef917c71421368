package checkout

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/2sipping0/pixelnextdigital/internal/domain/catalog"
	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
)

// CryptoInitiator starts a hosted crypto checkout for an order
type CryptoInitiator struct {
	api    *Client
	plans  *catalog.Catalog
	logger *zap.Logger
}

func NewCryptoInitiator(api *Client, plans *catalog.Catalog, logger *zap.Logger) *CryptoInitiator {
	return &CryptoInitiator{api: api, plans: plans, logger: logger}
}

// Pay creates a charge and records it as pending. The customer completes
// payment on HostedURL.
func (i *CryptoInitiator) Pay(ctx context.Context, order *model.Order) (*Result, error) {
	amount, err := i.plans.PriceDecimalUSD(order.SelectedPlan)
	if err != nil {
		return nil, err
	}

	logger := i.logger.With(zap.String("order_id", order.OrderID))

	charge, err := i.api.CreateCryptoCharge(ctx, &ChargeRequest{
		Name:          fmt.Sprintf("%s Website Package", order.SelectedPlan),
		Description:   fmt.Sprintf("Website development services for %s", order.BusinessName),
		Amount:        amount,
		OrderID:       order.OrderID,
		CustomerEmail: order.Email,
		CustomerName:  order.BusinessName,
	})
	if err != nil {
		logger.Warn("Failed to create crypto charge", zap.Error(err))
		return failed(err.Error()), nil
	}

	record := &PaymentRecord{
		OrderID:       order.OrderID,
		PaymentMethod: string(model.PaymentMethodCrypto),
		PaymentID:     charge.ID,
		Amount:        amount,
		Currency:      "USD",
		Status:        string(model.PaymentStatusPending),
		Metadata: model.CryptoMeta(model.CryptoMetadata{
			ChargeID:  charge.ID,
			HostedURL: charge.HostedURL,
			ExpiresAt: charge.ExpiresAt,
		}),
	}
	if err := i.api.RecordPayment(ctx, record); err != nil {
		logger.Warn("Failed to record crypto charge", zap.String("charge_id", charge.ID), zap.Error(err))
	}

	logger.Info("Crypto charge created",
		zap.String("charge_id", charge.ID),
		zap.String("charge_code", charge.Code))
	return &Result{Success: true, ChargeID: charge.ID, HostedURL: charge.HostedURL}, nil
}
