package errors

import (
	"go.uber.org/zap"
)

// LogError logs err at error level, adding error_code for AppErrors.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}
	logger.Error(msg, withCode(err, fields)...)
}

// Log logs server-side failures at error level and request failures
// (validation, not found, conflicts) at debug level.
func Log(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}
	if serverSide(CodeOf(err)) {
		logger.Error(msg, withCode(err, fields)...)
		return
	}
	logger.Debug(msg, withCode(err, fields)...)
}

func withCode(err error, fields []zap.Field) []zap.Field {
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.Error(err))

	var appErr *AppError
	if As(err, &appErr) {
		all = append(all, zap.String("error_code", appErr.Code()))
	}
	return append(all, fields...)
}
