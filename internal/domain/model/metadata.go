package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CardMetadata is provider detail for a card payment.
type CardMetadata struct {
	IntentID        string `json:"intentId,omitempty"`
	PaymentMethodID string `json:"paymentMethodId,omitempty"`
}

// CryptoMetadata is provider detail for a crypto charge.
type CryptoMetadata struct {
	ChargeID    string     `json:"chargeId,omitempty"`
	HostedURL   string     `json:"hostedUrl,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

// Metadata holds at most one of the variants. It is stored as a plain JSON
// object whose shape depends on the variant.
type Metadata struct {
	Card   *CardMetadata
	Crypto *CryptoMetadata
}

func CardMeta(intentID, paymentMethodID string) Metadata {
	return Metadata{Card: &CardMetadata{IntentID: intentID, PaymentMethodID: paymentMethodID}}
}

func CryptoMeta(m CryptoMetadata) Metadata {
	return Metadata{Crypto: &m}
}

func (m Metadata) IsZero() bool {
	return m.Card == nil && m.Crypto == nil
}

// Merge overlays non-empty fields of next onto m. Variants never mix.
func (m Metadata) Merge(next Metadata) Metadata {
	switch {
	case next.Card != nil && m.Card != nil:
		merged := *m.Card
		if next.Card.IntentID != "" {
			merged.IntentID = next.Card.IntentID
		}
		if next.Card.PaymentMethodID != "" {
			merged.PaymentMethodID = next.Card.PaymentMethodID
		}
		return Metadata{Card: &merged}
	case next.Crypto != nil && m.Crypto != nil:
		merged := *m.Crypto
		if next.Crypto.ChargeID != "" {
			merged.ChargeID = next.Crypto.ChargeID
		}
		if next.Crypto.HostedURL != "" {
			merged.HostedURL = next.Crypto.HostedURL
		}
		if next.Crypto.ExpiresAt != nil {
			merged.ExpiresAt = next.Crypto.ExpiresAt
		}
		if next.Crypto.ConfirmedAt != nil {
			merged.ConfirmedAt = next.Crypto.ConfirmedAt
		}
		return Metadata{Crypto: &merged}
	case next.IsZero():
		return m
	default:
		return next
	}
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	switch {
	case m.Card != nil:
		return json.Marshal(m.Card)
	case m.Crypto != nil:
		return json.Marshal(m.Crypto)
	default:
		return []byte("{}"), nil
	}
}

// UnmarshalJSON picks the variant from the keys present.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*m = Metadata{}

	_, hasIntent := keys["intentId"]
	_, hasPaymentMethod := keys["paymentMethodId"]
	_, hasCharge := keys["chargeId"]
	_, hasHosted := keys["hostedUrl"]

	switch {
	case hasIntent || hasPaymentMethod:
		var card CardMetadata
		if err := json.Unmarshal(data, &card); err != nil {
			return err
		}
		m.Card = &card
	case hasCharge || hasHosted:
		var crypto CryptoMetadata
		if err := json.Unmarshal(data, &crypto); err != nil {
			return err
		}
		m.Crypto = &crypto
	}
	return nil
}

// Value implements driver.Valuer interface
func (m Metadata) Value() (driver.Value, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface
func (m *Metadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
}
