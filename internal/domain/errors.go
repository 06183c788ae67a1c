package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountNotActive  = errors.New("account is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotAccountOwner   = errors.New("caller does not own the account")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSameAccount         = errors.New("cannot transfer to same account")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrCurrencyMismatch    = errors.New("currency does not match account currency")
	ErrInvalidTransition   = errors.New("invalid transaction status transition")
	ErrConflict            = errors.New("transaction conflict, retries exhausted")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already claimed")

	// Beneficiary errors
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")
)
