package verification

import "errors"

var (
	ErrInvalidIdentifier = errors.New("invalid tax identifier")
	ErrNotRegistered     = errors.New("identifier not found in registry")
	ErrRegistryFailure   = errors.New("registry lookup failed")
)
