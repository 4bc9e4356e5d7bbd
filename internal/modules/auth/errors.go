package auth

import "errors"

var (
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrBadCredentials      = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)
