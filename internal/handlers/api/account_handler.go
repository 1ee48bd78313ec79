package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/users"
)

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password"`
	NewPassword string `json:"new_password" form:"new_password"`
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type AccountHandler struct {
	userService UserService
	tokenIssuer TokenIssuer
	cookie      CookieConfig
}

func (h *AccountHandler) PostRegister(ctx *fiber.Ctx) error {
	var req registerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	var errs fieldErrors
	validateUsername(&errs, req.Username)
	validateEmail(&errs, req.Email)
	validatePassword(&errs, "password", req.Password)
	if err := errs.err(); err != nil {
		return err
	}

	user, err := h.userService.Register(ctx.UserContext(), users.CreateUserOptions{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(NewDataResponse(newUserInfoResponse(user)))
}

func (h *AccountHandler) PostLogin(ctx *fiber.Ctx) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return users.ErrInvalidCredentials
	}

	user, err := h.userService.Authenticate(ctx.UserContext(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return err
	}
	token, expiresAt, err := h.tokenIssuer.Issue(user.ID)
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.JSON(NewDataResponse(TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}))
}

func (h *AccountHandler) PostLogout(ctx *fiber.Ctx) error {
	ctx.ClearCookie(h.cookie.Name)
	return ctx.JSON(NewDataResponse(MessageResponse{Message: "Logged out"}))
}

func (h *AccountHandler) GetMe(ctx *fiber.Ctx) error {
	return ctx.JSON(NewDataResponse(newUserInfoResponse(currentUser(ctx))))
}

func (h *AccountHandler) PutChangePassword(ctx *fiber.Ctx) error {
	var req changePasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	var errs fieldErrors
	validatePassword(&errs, "new_password", req.NewPassword)
	if err := errs.err(); err != nil {
		return err
	}

	if err := h.userService.ChangePassword(ctx.UserContext(), currentUser(ctx), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(MessageResponse{Message: "Password updated successfully"}))
}

func NewAccountHandler(userService UserService, tokenIssuer TokenIssuer, cookie CookieConfig) *AccountHandler {
	return &AccountHandler{
		userService: userService,
		tokenIssuer: tokenIssuer,
		cookie:      cookie,
	}
}
