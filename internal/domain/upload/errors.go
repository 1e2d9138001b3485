package upload

import "errors"

var (
	// ErrNotFound is returned when the upload doesn't exist
	ErrNotFound = errors.New("upload not found")

	// ErrNotOwner is returned when the upload belongs to someone else
	ErrNotOwner = errors.New("upload belongs to another user")

	// ErrInvalidKind is returned for unknown upload kinds
	ErrInvalidKind = errors.New("invalid upload kind")

	ErrInternal = errors.New("internal error")
)
