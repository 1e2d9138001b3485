package credit

import "errors"

var (
	// ErrInsufficientCredits is returned when the available balance cannot cover a debit
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInvalidTxType is returned for unknown ledger types
	ErrInvalidTxType = errors.New("invalid transaction type")

	// ErrAccountNotFound is returned when the user has no credit account
	ErrAccountNotFound = errors.New("credit account not found")

	// ErrInsufficientFrozen is returned when unfreezing more than is frozen
	ErrInsufficientFrozen = errors.New("insufficient frozen credits")

	ErrInternal = errors.New("internal error")
)
