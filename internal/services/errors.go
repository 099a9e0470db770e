package services

import "errors"

// Sentinel errors returned by the credit and reconciliation services.
// Callers distinguish them with errors.Is; anything else wrapping a
// repository error means the store itself failed and the call can be
// retried once the store is healthy.
var (
	// ErrValidation rejects bad input before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotPending rejects a state transition on a request or farmer that
	// has already been settled.
	ErrNotPending = errors.New("not in pending status")

	// ErrInsufficientCredit is a business-rule rejection, not a fault: the
	// draw would push the farmer past their credit limit.
	ErrInsufficientCredit = errors.New("insufficient credit headroom")

	// ErrConcurrentModification means another caller moved the farmer's
	// balance between our read and our write. Re-read and retry.
	ErrConcurrentModification = errors.New("credit profile modified concurrently")

	// ErrAlreadyApproved guards milk approvals, which are create-once.
	ErrAlreadyApproved = errors.New("collection already approved")

	// ErrCollectionNotFound covers both a missing collection and one not
	// yet eligible for payment approval.
	ErrCollectionNotFound = errors.New("collection not found or not payable")

	// ErrCollectionUpdateFailed is fatal for a reconciliation run: the
	// collections batch update is the authoritative trigger and must not
	// partially succeed silently.
	ErrCollectionUpdateFailed = errors.New("collection batch update failed")

	// ErrLedgerInconsistency means a credit write sequence was interrupted
	// part way. Nothing is auto-retried; the caller must re-read and run
	// the operation again from a clean state.
	ErrLedgerInconsistency = errors.New("credit ledger write incomplete")
)
