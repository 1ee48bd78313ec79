package api

import "github.com/gofiber/fiber/v2"

type Handlers struct {
	Account       *AccountHandler
	PasswordReset *PasswordResetHandler
	Device        *DeviceHandler
	Audit         *AuditHandler
}

// SetupRoutes mounts the JSON API on router. requireAuth guards every
// endpoint that acts on behalf of a user, resetLimiter throttles the
// password reset flow.
func SetupRoutes(router fiber.Router, h Handlers, requireAuth fiber.Handler, resetLimiter fiber.Handler) {
	router.Post("/register", h.Account.PostRegister)
	router.Post("/login", h.Account.PostLogin)
	router.Post("/logout", h.Account.PostLogout)

	router.Post("/request-password-reset", resetLimiter, h.PasswordReset.PostRequestPasswordReset)
	router.Post("/verify-reset-code", resetLimiter, h.PasswordReset.PostVerifyResetCode)
	router.Post("/set-new-password", resetLimiter, h.PasswordReset.PostSetNewPassword)

	router.Get("/me", requireAuth, h.Account.GetMe)
	router.Put("/change-password", requireAuth, h.Account.PutChangePassword)

	devices := router.Group("/devices", requireAuth)
	devices.Post("/", h.Device.PostDevice)
	devices.Get("/", h.Device.GetDevices)
	devices.Get("/:id", h.Device.GetDevice)
	devices.Put("/:id", h.Device.PutDevice)
	devices.Delete("/:id", h.Device.DeleteDevice)

	router.Get("/audit-logs", requireAuth, h.Audit.GetAuditLogs)
}
