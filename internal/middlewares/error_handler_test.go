package middlewares

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/auth"
	"github.com/isgnet/devreg/internal/database"
	"github.com/isgnet/devreg/internal/devices"
	"github.com/isgnet/devreg/internal/handlers/api"
	"github.com/isgnet/devreg/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{devices.ErrDuplicateDevice, fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", devices.ErrDeviceNotFound), fiber.StatusNotFound},
		{users.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{auth.ErrTokenMissing, fiber.StatusUnauthorized},
		{users.ErrUserNotFound, fiber.StatusNotFound},
		{&api.ValidationError{Details: []api.APIErrorDetail{{Domain: "port", Reason: "invalid", Message: "bad port"}}}, fiber.StatusUnprocessableEntity},
		{fiber.NewError(fiber.StatusTooManyRequests, "slow down"), fiber.StatusTooManyRequests},
		{database.NewStorageError("create device", io.ErrUnexpectedEOF), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
			app.Use(RequestMetrics())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			var body api.APIResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			if tt.code == fiber.StatusInternalServerError {
				assert.Equal(t, "Internal server error", body.Error.Message)
			}
		})
	}
}
