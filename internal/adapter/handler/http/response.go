package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	pkgErrors "github.com/2sipping0/pixelnextdigital/pkg/errors"
)

// respondError writes {error, code} for err, keeping 5xx causes in the log only.
func respondError(c echo.Context, logger *zap.Logger, err error, msg string) error {
	resp := pkgErrors.ToResponse(err, "")
	pkgErrors.Log(logger, err, msg, zap.String("path", c.Path()))

	return c.JSON(resp.Status, echo.Map{
		"error": resp.Message,
		"code":  resp.Code,
	})
}

func messageJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"message": message})
}
