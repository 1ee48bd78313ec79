package users

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrIncorrectPassword  = errors.New("incorrect old password")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrInvalidResetCode   = errors.New("invalid reset code")
	ErrResetCodeExpired   = errors.New("reset code expired")
)
