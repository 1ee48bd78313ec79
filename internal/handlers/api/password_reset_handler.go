package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/mail"
	"github.com/isgnet/devreg/internal/metrics"
)

type requestResetRequest struct {
	Email string `json:"email" form:"email"`
}

type verifyResetCodeRequest struct {
	Email string `json:"email" form:"email"`
	Code  string `json:"code" form:"code"`
}

type setNewPasswordRequest struct {
	Email       string `json:"email" form:"email"`
	Code        string `json:"code" form:"code"`
	NewPassword string `json:"new_password" form:"new_password"`
}

type PasswordResetHandler struct {
	userService UserService
	mailSender  mail.MailSender
	codeTTL     time.Duration
}

func recordResetStage(stage string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.PasswordResetRequests.WithLabelValues(stage, outcome).Inc()
}

func (h *PasswordResetHandler) sendResetCode(email, username, code string) {
	expireMinutes := int(h.codeTTL / time.Minute)
	if err := mail.SendPasswordResetCode(h.mailSender, email, username, code, expireMinutes); err != nil {
		slog.Error("Failed to send password reset code", "email", email, "error", err)
	}
}

func (h *PasswordResetHandler) PostRequestPasswordReset(ctx *fiber.Ctx) error {
	var req requestResetRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	var errs fieldErrors
	validateEmail(&errs, strings.TrimSpace(req.Email))
	if err := errs.err(); err != nil {
		return err
	}

	user, code, err := h.userService.RequestPasswordReset(ctx.UserContext(), req.Email)
	recordResetStage("request", err)
	if err != nil {
		return err
	}
	go h.sendResetCode(user.Email, user.Username, code)
	return ctx.JSON(NewDataResponse(MessageResponse{Message: "Password reset code sent"}))
}

func (h *PasswordResetHandler) PostVerifyResetCode(ctx *fiber.Ctx) error {
	var req verifyResetCodeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	err := h.userService.VerifyResetCode(ctx.UserContext(), req.Email, req.Code)
	recordResetStage("verify", err)
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(MessageResponse{Message: "Reset code verified"}))
}

func (h *PasswordResetHandler) PostSetNewPassword(ctx *fiber.Ctx) error {
	var req setNewPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	var errs fieldErrors
	validatePassword(&errs, "new_password", req.NewPassword)
	if err := errs.err(); err != nil {
		return err
	}

	err := h.userService.SetNewPassword(ctx.UserContext(), req.Email, req.Code, req.NewPassword)
	recordResetStage("set", err)
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(MessageResponse{Message: "Password has been reset"}))
}

func NewPasswordResetHandler(userService UserService, mailSender mail.MailSender, codeTTL time.Duration) *PasswordResetHandler {
	return &PasswordResetHandler{
		userService: userService,
		mailSender:  mailSender,
		codeTTL:     codeTTL,
	}
}
