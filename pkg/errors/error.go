package errors

import (
	"errors"
	"fmt"
)

var (
	New    = errors.New
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// Coder is satisfied by errors that map onto an HTTP status through
// GetCodeMapping.
type Coder interface {
	error
	Code() string
}

// AppError pairs a client-facing message with a code and an optional cause.
// Error() includes the cause; Message() does not.
type AppError struct {
	code    string
	message string
	err     error
}

func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

func (e *AppError) Error() string {
	if e.err == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.err.Error())
}

func (e *AppError) Code() string    { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.err }

// Wrap adds message to err. The code of the nearest coded error survives.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeOf(err), message, err)
}

// CodeOf reports ErrInternal for uncoded errors.
func CodeOf(err error) string {
	var coded Coder
	if As(err, &coded) {
		return coded.Code()
	}
	return ErrInternal
}
