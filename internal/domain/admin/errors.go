package admin

import "errors"

var (
	// ErrUnauthorized is returned when no session identity is present
	ErrUnauthorized = errors.New("no session identity")

	// ErrForbidden is returned when the identity is not privileged
	ErrForbidden = errors.New("identity is not an admin")

	ErrInternal = errors.New("internal error")
)
