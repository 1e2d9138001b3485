package generation

import "errors"

var (
	// ErrNotFound is returned when the job doesn't exist
	ErrNotFound = errors.New("generation not found")

	// ErrInvalidDuration is returned for durations outside the allowed set
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrTooManyImages is returned when reference image count exceeds the limit
	ErrTooManyImages = errors.New("too many reference images")

	// ErrProvider is returned when the video provider call fails
	ErrProvider = errors.New("video provider unavailable")

	// ErrNotOwner is returned when a user touches someone else's job
	ErrNotOwner = errors.New("generation belongs to another user")

	ErrInternal = errors.New("internal error")
)
