package account

import "errors"

var (
	ErrNotFound    = errors.New("account not found")
	ErrEmailTaken  = errors.New("email already registered")
	ErrInvalidRole = errors.New("invalid account role")
	ErrDeactivated = errors.New("account is deactivated")
)
