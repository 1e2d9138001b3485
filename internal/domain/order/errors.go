package order

import "errors"

var (
	// ErrPackageNotFound is returned when the package doesn't exist or is inactive
	ErrPackageNotFound = errors.New("package not found")

	// ErrOrderNotFound is returned when the order doesn't exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrAmountMismatch is returned when the gateway amount differs from the order
	ErrAmountMismatch = errors.New("payment amount does not match order")

	// ErrNotPending is returned when a terminal order is mutated
	ErrNotPending = errors.New("order is not pending")

	ErrInternal = errors.New("internal error")
)
