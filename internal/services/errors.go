package services

import "errors"

// Shared service-level sentinels. Handlers map these to HTTP statuses:
// ErrValidation → 400, ErrConflict → 409, repositories.ErrNotFound → 404.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict with current state")
)
