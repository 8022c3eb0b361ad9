package topup

import "errors"

var (
	ErrNotFound       = errors.New("top-up request not found")
	ErrAlreadyDecided = errors.New("top-up request already decided")
	ErrInvalidVerdict = errors.New("invalid verdict")
)
