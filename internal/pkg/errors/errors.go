package errors

import "errors"

// Sentinels shared across layers; wrap them with %w and match with errors.Is.
// ErrForbidden means the caller is authenticated but may not touch the resource.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidArgument = errors.New("invalid argument")
)
