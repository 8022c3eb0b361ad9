package proof

import "errors"

var (
	ErrNotFound = errors.New("proof not found")
	ErrNotOwner = errors.New("not proof owner")
)
