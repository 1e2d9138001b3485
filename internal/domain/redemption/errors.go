package redemption

import "errors"

var (
	// ErrNotFound is returned when the code doesn't exist
	ErrNotFound = errors.New("redemption code not found")

	// ErrAlreadyRedeemed is returned when the code was consumed, raced or voided
	ErrAlreadyRedeemed = errors.New("code already redeemed")

	// ErrExpired is returned when the code's expiry has passed
	ErrExpired = errors.New("code expired")

	// ErrInvalidCount is returned when batch size is outside [1,1000]
	ErrInvalidCount = errors.New("count must be between 1 and 1000")

	// ErrInvalidCredits is returned when credits <= 0
	ErrInvalidCredits = errors.New("credits must be positive")

	// ErrNotActive is returned when voiding a terminal code
	ErrNotActive = errors.New("code is not active")

	ErrInternal = errors.New("internal error")
)
