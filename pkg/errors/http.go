package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is err resolved for an HTTP error body.
type Response struct {
	Status  int
	Code    string
	Message string
}

// ToResponse resolves err to a status, code and client-facing message.
// Errors without an AppError in their chain get fallback as the message, or
// the status text when fallback is empty; their cause never reaches the body.
func ToResponse(err error, fallback string) Response {
	if echoErr, ok := err.(*echo.HTTPError); ok {
		err = FromHTTPError(echoErr)
	}

	var appErr *AppError
	if As(err, &appErr) {
		return Response{
			Status:  ToHTTPStatus(appErr.Code()),
			Code:    appErr.Code(),
			Message: appErr.Message(),
		}
	}

	resp := Response{Status: http.StatusInternalServerError, Code: ErrInternal, Message: fallback}
	if resp.Message == "" {
		resp.Message = http.StatusText(resp.Status)
	}
	return resp
}

// ToHTTPError converts err to an echo HTTP error. echo errors pass through.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}
	if echoErr, ok := err.(*echo.HTTPError); ok {
		return echoErr
	}

	resp := ToResponse(err, "")
	return echo.NewHTTPError(resp.Status, resp.Message).SetInternal(err)
}

// FromHTTPError converts an echo HTTP error to an AppError.
func FromHTTPError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return err
	}

	if echoErr, ok := err.(*echo.HTTPError); ok {
		msg, ok := echoErr.Message.(string)
		if !ok {
			msg = http.StatusText(echoErr.Code)
		}
		return NewAppError(codeForStatus(echoErr.Code), msg, echoErr.Internal)
	}

	return NewAppError(ErrInternal, err.Error(), err)
}
