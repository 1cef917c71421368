package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/2sipping0/pixelnextdigital/internal/domain/errors"
)

func TestOrder_TransitionTo(t *testing.T) {
	tests := []struct {
		name        string
		from        OrderStatus
		to          OrderStatus
		wantChanged bool
		wantErr     bool
	}{
		{"pending to paid", OrderStatusPending, OrderStatusPaid, true, false},
		{"pending to failed", OrderStatusPending, OrderStatusPaymentFailed, true, false},
		{"paid again", OrderStatusPaid, OrderStatusPaid, false, false},
		{"paid to failed", OrderStatusPaid, OrderStatusPaymentFailed, false, true},
		{"failed to paid", OrderStatusPaymentFailed, OrderStatusPaid, false, true},
		{"back to pending", OrderStatusPaid, OrderStatusPending, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{OrderID: "PND123456", Status: tt.from}

			changed, err := order.TransitionTo(tt.to)

			assert.Equal(t, tt.wantChanged, changed)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domainErrors.ErrInvalidTransition))
				assert.Equal(t, tt.from, order.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, order.Status)
		})
	}
}

func TestParsePaymentMethod(t *testing.T) {
	for _, in := range []string{"card", "Stripe", " card "} {
		method, err := ParsePaymentMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, PaymentMethodCard, method)
	}
	assert.Equal(t, PaymentMethod("stripe"), PaymentMethodCard)

	method, err := ParsePaymentMethod("crypto")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCrypto, method)

	_, err = ParsePaymentMethod("paypal")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidPaymentMethod)
}

func TestPayment_MergeFromOnlyMovesForward(t *testing.T) {
	stored := &Payment{
		OrderID:  "PND123456",
		Status:   PaymentStatusPending,
		Amount:   "900.00",
		Currency: "usd",
		Metadata: CardMeta("pi_1", ""),
	}

	changed := stored.MergeFrom(&Payment{Status: PaymentStatusSucceeded, Metadata: CardMeta("", "pm_1")})
	assert.True(t, changed)
	assert.Equal(t, PaymentStatusSucceeded, stored.Status)
	assert.Equal(t, "900.00", stored.Amount)
	assert.Equal(t, &CardMetadata{IntentID: "pi_1", PaymentMethodID: "pm_1"}, stored.Metadata.Card)

	assert.False(t, stored.MergeFrom(&Payment{Status: PaymentStatusPending}))
	assert.False(t, stored.MergeFrom(&Payment{Status: PaymentStatusSucceeded, Amount: "1.00"}))
	assert.Equal(t, "900.00", stored.Amount)
}

func TestPayment_MergeFromVerified(t *testing.T) {
	stored := &Payment{
		OrderID:  "PND123456",
		Status:   PaymentStatusSucceeded,
		Amount:   "1.00",
		Currency: "eur",
		Metadata: CryptoMeta(CryptoMetadata{ChargeID: "charge_1"}),
	}

	changed := stored.MergeFrom(&Payment{
		Status:   PaymentStatusSucceeded,
		Amount:   "900.00",
		Currency: "usd",
		Metadata: CardMeta("pi_1", "pm_1"),
		Verified: true,
	})
	require.True(t, changed)
	assert.True(t, stored.Verified)
	assert.Equal(t, "900.00", stored.Amount)
	assert.Equal(t, "usd", stored.Currency)
	assert.Nil(t, stored.Metadata.Crypto)
	assert.Equal(t, &CardMetadata{IntentID: "pi_1", PaymentMethodID: "pm_1"}, stored.Metadata.Card)

	assert.False(t, stored.MergeFrom(&Payment{Status: PaymentStatusSucceeded, Amount: "2.00", Currency: "eur"}))
	assert.False(t, stored.MergeFrom(&Payment{Status: PaymentStatusPending, Amount: "3.00"}))
	assert.Equal(t, "900.00", stored.Amount)
	assert.Equal(t, "usd", stored.Currency)

	assert.False(t, stored.MergeFrom(&Payment{Status: PaymentStatusSucceeded, Amount: "4.00", Verified: true}))
	assert.Equal(t, "900.00", stored.Amount)
}

func TestMetadata_JSONPicksVariant(t *testing.T) {
	var card Metadata
	require.NoError(t, card.UnmarshalJSON([]byte(`{"intentId":"pi_1","paymentMethodId":"pm_1"}`)))
	assert.Nil(t, card.Crypto)
	assert.Equal(t, "pm_1", card.Card.PaymentMethodID)

	var crypto Metadata
	require.NoError(t, crypto.Scan([]byte(`{"chargeId":"charge_1","hostedUrl":"https://commerce.coinbase.com/charges/CODE1"}`)))
	assert.Nil(t, crypto.Card)
	assert.Equal(t, "charge_1", crypto.Crypto.ChargeID)

	var empty Metadata
	require.NoError(t, empty.Scan(nil))
	assert.True(t, empty.IsZero())
	value, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}

func TestMetadata_MergeKeepsVariant(t *testing.T) {
	expires := time.Date(2026, 1, 2, 15, 4, 0, 0, time.UTC)
	confirmed := expires.Add(time.Hour)

	pending := CryptoMeta(CryptoMetadata{ChargeID: "charge_1", HostedURL: "https://example.test", ExpiresAt: &expires})
	merged := pending.Merge(CryptoMeta(CryptoMetadata{ChargeID: "charge_1", ConfirmedAt: &confirmed}))

	require.NotNil(t, merged.Crypto)
	assert.Equal(t, "https://example.test", merged.Crypto.HostedURL)
	assert.Equal(t, &expires, merged.Crypto.ExpiresAt)
	assert.Equal(t, &confirmed, merged.Crypto.ConfirmedAt)

	assert.Equal(t, pending, pending.Merge(Metadata{}))
}

func TestWebhookStatus_Scan(t *testing.T) {
	var status WebhookStatus
	require.NoError(t, status.Scan([]byte("ignored")))
	assert.Equal(t, WebhookStatusIgnored, status)
	assert.True(t, status.Finished())

	require.NoError(t, status.Scan(nil))
	assert.Equal(t, WebhookStatusProcessing, status)
	assert.False(t, status.Finished())

	assert.Error(t, status.Scan("pending"))
	assert.Error(t, status.Scan(42))
}
