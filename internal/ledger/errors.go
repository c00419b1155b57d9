package ledger

import "errors"

// Domain errors surfaced to the API layer. Every one of them aborts the
// operation before any mutation is committed.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrUnauthorizedAccount = errors.New("account not owned by caller")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
