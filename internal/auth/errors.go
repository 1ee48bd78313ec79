package auth

import "errors"

var (
	ErrTokenMissing = errors.New("not authenticated")
	ErrTokenInvalid = errors.New("could not validate credentials")
	ErrTokenExpired = errors.New("token expired")
)
