package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2sipping0/pixelnextdigital/internal/domain/model"
	"github.com/2sipping0/pixelnextdigital/internal/domain/provider"
)

func TestCreatePaymentIntent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/create-payment-intent", map[string]interface{}{
		"amount":  90000,
		"orderId": "PND-PI-1",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pi_test_PND-PI-1_secret_abc", decode(t, rec)["clientSecret"])
	require.Len(t, env.card.intents, 1)
	assert.Equal(t, int64(90000), env.card.intents[0].AmountCents)
	assert.Equal(t, "usd", env.card.intents[0].Currency)
}

func TestCreatePaymentIntent_MissingParameters(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"no amount", map[string]interface{}{"orderId": "PND-1"}},
		{"no order", map[string]interface{}{"amount": 30000}},
		{"zero amount", map[string]interface{}{"amount": 0, "orderId": "PND-1"}},
		{"garbage", []byte("{")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/create-payment-intent", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing required parameters", decode(t, rec)["message"])
		})
	}
	assert.Empty(t, env.card.intents)
}

func TestCreatePaymentIntent_ProviderError(t *testing.T) {
	env := newTestEnv(t)
	env.card.err = &provider.ProviderError{Code: provider.CodeAPI, Message: "Your card was declined."}

	rec := env.do(t, http.MethodPost, "/api/create-payment-intent", map[string]interface{}{
		"amount":  30000,
		"orderId": "PND-PI-2",
	}, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Your card was declined.", decode(t, rec)["message"])
}

func TestCreateCryptoCharge(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/create-crypto-charge", map[string]interface{}{
		"name":          "Professional Package",
		"description":   "Website package for Acme Bakery",
		"amount":        "900.00",
		"orderId":       "PND 7",
		"customerEmail": "owner@acme.test",
		"customerName":  "Acme Bakery",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	chargeData, ok := decode(t, rec)["chargeData"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "charge_1", chargeData["id"])
	assert.Equal(t, "https://commerce.coinbase.com/charges/CODE1", chargeData["hosted_url"])

	sent := env.chargeBody()
	require.NotNil(t, sent)
	assert.Equal(t, "fixed_price", sent["pricing_type"])
	assert.Equal(t, map[string]interface{}{"amount": "900.00", "currency": "USD"}, sent["local_price"])
	assert.Equal(t, "https://shop.test/payment/success?orderId=PND+7", sent["redirect_url"])
	assert.Equal(t, "https://shop.test/payment/cancel?orderId=PND+7", sent["cancel_url"])
	metadata, ok := sent["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "PND 7", metadata["orderId"])
}

func TestCreateCryptoCharge_NumericAmount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/create-crypto-charge", []byte(
		`{"name":"Basic Package","description":"Basic","amount":300,"orderId":"PND-8"}`), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]interface{}{"amount": "300", "currency": "USD"}, env.chargeBody()["local_price"])
}

func TestCreateCryptoCharge_MissingParameters(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/create-crypto-charge", map[string]interface{}{
		"name":    "Basic Package",
		"orderId": "PND-9",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required parameters", decode(t, rec)["message"])
	assert.Nil(t, env.chargeBody())
}

func TestRecordPayment(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder(t, "PND-RP-1", "Basic", model.PaymentMethodCard)

	rec := env.do(t, http.MethodPost, "/api/payments", map[string]interface{}{
		"orderId":       "PND-RP-1",
		"paymentMethod": "card",
		"paymentId":     "pi_rp_1",
		"amount":        "300.00",
		"currency":      "usd",
		"status":        "succeeded",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "stripe", body["payment_method"])
	assert.Equal(t, "pi_rp_1", body["payment_id"])

	payments, err := env.orders.ListPayments(context.Background(), "PND-RP-1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusSucceeded, payments[0].Status)
}

func TestRecordPayment_RejectsTerminalStatusFromClient(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/payments", map[string]interface{}{
		"orderId":       "PND-RP-2",
		"paymentMethod": "crypto",
		"paymentId":     "charge_rp_2",
		"amount":        "300.00",
		"currency":      "USD",
		"status":        "confirmed",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", decode(t, rec)["code"])
}
