// Package common defines shared constants and sentinel errors used across
// the LocalBiz server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrDuplicate      = errors.New("already exists")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrRateLimited        = errors.New("too many requests")
	ErrStorageDisabled    = errors.New("object storage is not configured")

	// Token errors. ErrTokenExpired is kept apart from ErrInvalidToken so
	// clients can show a distinct "session expired" message.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
