package middlewares

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/auth"
	"github.com/isgnet/devreg/internal/devices"
	"github.com/isgnet/devreg/internal/handlers/api"
	"github.com/isgnet/devreg/internal/users"
)

var statusByError = []struct {
	err  error
	code int
}{
	{devices.ErrDuplicateDevice, fiber.StatusBadRequest},
	{devices.ErrDeviceNotFound, fiber.StatusNotFound},
	{users.ErrUsernameTaken, fiber.StatusBadRequest},
	{users.ErrEmailRegistered, fiber.StatusBadRequest},
	{users.ErrIncorrectPassword, fiber.StatusBadRequest},
	{users.ErrPasswordTooShort, fiber.StatusBadRequest},
	{users.ErrInvalidResetCode, fiber.StatusBadRequest},
	{users.ErrResetCodeExpired, fiber.StatusBadRequest},
	{users.ErrUserNotFound, fiber.StatusNotFound},
	{users.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{users.ErrUserDisabled, fiber.StatusForbidden},
	{auth.ErrTokenMissing, fiber.StatusUnauthorized},
	{auth.ErrTokenInvalid, fiber.StatusUnauthorized},
	{auth.ErrTokenExpired, fiber.StatusUnauthorized},
}

// ErrorHandler renders every error returned by a handler as a JSON API
// error response.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var validationErr *api.ValidationError
	if errors.As(err, &validationErr) {
		code := fiber.StatusUnprocessableEntity
		return ctx.Status(code).JSON(api.NewErrorResponse(code, "Validation failed", validationErr.Details...))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(api.NewErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	for _, entry := range statusByError {
		if errors.Is(err, entry.err) {
			if entry.code == fiber.StatusUnauthorized {
				ctx.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			}
			return ctx.Status(entry.code).JSON(api.NewErrorResponse(entry.code, err.Error()))
		}
	}

	slog.Error("unhandled error", "path", ctx.Path(), "error", err)
	code := fiber.StatusInternalServerError
	return ctx.Status(code).JSON(api.NewErrorResponse(code, "Internal server error"))
}
