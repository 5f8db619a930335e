package shared

import "errors"

var (
	// common errors
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")

	// auth-specific errors
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token expired")
	ErrInvalidLoginPassword = errors.New("invalid login/password")
	ErrNotVerified          = errors.New("account not verified")

	// account-specific errors
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)
