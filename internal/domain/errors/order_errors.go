package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when no order has the requested order id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists is returned when an order id is already taken.
	ErrOrderExists = errors.New("order already exists")
	// ErrInvalidPlan is returned for plan names outside the catalog.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrInvalidPaymentMethod is returned for payment methods other than card and crypto.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidTransition is returned when an order status change is not allowed.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrConfigMissing is returned when a backend was never configured.
	ErrConfigMissing = errors.New("configuration missing")
	// ErrStoreUnavailable wraps transport and database failures of the order store.
	ErrStoreUnavailable = errors.New("order store unavailable")
	// ErrProviderNotLoaded is returned when a payment initiator has no provider SDK.
	ErrProviderNotLoaded = errors.New("payment provider has not loaded yet")
)

// TransitionError describes a rejected status change.
type TransitionError struct {
	OrderID string
	From    string
	To      string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ConfigMissingError names the missing setting.
type ConfigMissingError struct {
	Component string
	Setting   string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("%s configuration missing: %s", e.Component, e.Setting)
}

func (e *ConfigMissingError) Unwrap() error {
	return ErrConfigMissing
}
