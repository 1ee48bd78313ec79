package middlewares

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/isgnet/devreg/internal/auth"
	"github.com/isgnet/devreg/internal/handlers/api"
	"github.com/isgnet/devreg/internal/users"
	"github.com/isgnet/devreg/model"
)

type TokenVerifier interface {
	Verify(token string) (uint, error)
}

type UserGetter interface {
	GetUserByID(ctx context.Context, userID uint) (*model.User, error)
}

func extractToken(ctx *fiber.Ctx, cookieName string) string {
	header := ctx.Get(fiber.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ctx.Cookies(cookieName)
}

// RequireAuth accepts an access token from the Authorization header or the
// access token cookie and stores the token's user under api.LocalsUser.
func RequireAuth(verifier TokenVerifier, userGetter UserGetter, cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		token := extractToken(ctx, cookieName)
		if token == "" {
			return auth.ErrTokenMissing
		}
		userID, err := verifier.Verify(token)
		if err != nil {
			return err
		}
		user, err := userGetter.GetUserByID(ctx.UserContext(), userID)
		if errors.Is(err, users.ErrUserNotFound) {
			return auth.ErrTokenInvalid
		}
		if err != nil {
			return err
		}
		ctx.Locals(api.LocalsUser, user)
		return ctx.Next()
	}
}
