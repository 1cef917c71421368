package usecase

import "errors"

// ErrEmailNotConfigured is returned when no email transport is configured
var ErrEmailNotConfigured = errors.New("email service configuration error")
