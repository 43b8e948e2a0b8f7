package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrTokenNotFound      = errors.New("auth: token not found")
	ErrUsernameTaken      = errors.New("auth: username already exists")
)
