package usecase

import "errors"

// Business-rule failures. Handlers map these to status codes; anything else
// is treated as unexpected.
var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidOTP      = errors.New("invalid or expired OTP")
	ErrTooManyAttempts = errors.New("too many OTP attempts")
	ErrUserExists      = errors.New("user already exists")
	ErrNotRegistered   = errors.New("user not registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid or expired token")
)
