package user

import "errors"

var (
	// ErrNotFound is returned when user doesn't exist
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrPhoneTaken is returned when phone is already registered
	ErrPhoneTaken = errors.New("phone already registered")

	// ErrNoIdentifier is returned when neither email nor phone is set
	ErrNoIdentifier = errors.New("email or phone required")

	ErrInternal = errors.New("internal error")
)
