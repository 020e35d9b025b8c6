package store

import "errors"

// Sentinel errors shared across all layers. Callers discriminate with
// errors.Is; the database layer wraps them with contextual detail.
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks an absent transaction, package or user record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReference marks a reference id already claimed by an
	// existing transaction or payment record.
	ErrDuplicateReference = errors.New("duplicate reference")

	// ErrAlreadyProcessed marks a state transition attempted on a
	// transaction that is no longer pending.
	ErrAlreadyProcessed = errors.New("transaction already processed")

	// ErrPaymentNotFound marks a recharge completion with no unused
	// payment record carrying the transaction's reference.
	ErrPaymentNotFound = errors.New("no unused payment found for reference")

	// ErrAmountMismatch marks a payment record whose amount does not cover
	// the transaction amount.
	ErrAmountMismatch = errors.New("payment amount does not cover transaction")

	// ErrInsufficientFunds marks a wallet balance below the purchase price.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrRateLimited marks a user at the pending-request cap.
	ErrRateLimited = errors.New("too many pending requests")

	// ErrUnauthorized marks a sender not on the allow-list.
	ErrUnauthorized = errors.New("unauthorized sender")

	// ErrForbidden marks an operation on a resource the caller does not own.
	ErrForbidden = errors.New("forbidden")

	// ErrConcurrentModification marks a single atomic-unit attempt aborted
	// because a row read inside the unit was modified before commit.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrInternalConflict is surfaced after retries of a conflicted unit
	// are exhausted. Retryable by the caller.
	ErrInternalConflict = errors.New("persistent write conflict, retry later")
)
