package pass

import "errors"

var (
	ErrNotFound        = errors.New("pass not found")
	ErrAlreadyConsumed = errors.New("pass already consumed")
	ErrExpired         = errors.New("pass expired")
	ErrNotOwner        = errors.New("pass belongs to another account")
	ErrNotActive       = errors.New("pass is not active")
)
