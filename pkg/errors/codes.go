package errors

import "net/http"

// Shared error codes.
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrUnavailable     = "UNAVAILABLE"
	ErrConfigMissing   = "CONFIG_MISSING"
	ErrUpstream        = "UPSTREAM"
)

var statusByCode = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrUnauthorized:    http.StatusForbidden,
	ErrConflict:        http.StatusConflict,
	ErrTimeout:         http.StatusGatewayTimeout,
	ErrUnavailable:     http.StatusServiceUnavailable,
	ErrConfigMissing:   http.StatusServiceUnavailable,
	ErrUpstream:        http.StatusBadGateway,
}

// ToHTTPStatus maps an error code to its HTTP status, defaulting to 500.
func ToHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// codeForStatus is the inverse of ToHTTPStatus. 503 resolves to UNAVAILABLE;
// CONFIG_MISSING is only ever set explicitly.
func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusMethodNotAllowed:
		return ErrInvalidArgument
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrTimeout
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	case http.StatusBadGateway:
		return ErrUpstream
	}
	return ErrInternal
}

// serverSide reports whether a code describes a failure of this service or
// one of its dependencies rather than of the request.
func serverSide(code string) bool {
	return ToHTTPStatus(code) >= http.StatusInternalServerError
}
