package entities

import "errors"

// Raffle operation failures. Each one is recoverable: it aborts only the
// operation that raised it, with every tentative write of that operation
// rolled back. Callers match with errors.Is.
var (
	// ErrPaymentMismatch is returned by enter when the tendered amount does
	// not equal the entry fee times the number of identities submitted.
	ErrPaymentMismatch = errors.New("payment does not match entry fee")

	// ErrDuplicateEntrant is returned when an enter call would leave the
	// same identity in more than one active slot.
	ErrDuplicateEntrant = errors.New("identity already holds an active slot")

	// ErrNotOwner is returned when a refund targets a slot the caller does
	// not hold, including out-of-range slot indexes.
	ErrNotOwner = errors.New("slot is not held by caller")

	// ErrAlreadyRefunded is returned when a refund targets a tombstoned slot.
	ErrAlreadyRefunded = errors.New("slot already refunded")

	// ErrTransferFailed wraps a treasury send that reported failure. The
	// operation that initiated the send has been rolled back.
	ErrTransferFailed = errors.New("treasury transfer failed")

	// ErrRaffleNotOver is returned by a draw attempted before the round's
	// configured duration has elapsed.
	ErrRaffleNotOver = errors.New("raffle round is not over yet")

	// ErrInsufficientEntrants is returned by a draw with fewer active
	// entrants than the minimum.
	ErrInsufficientEntrants = errors.New("not enough active entrants to draw")

	// ErrFeeOverflow is returned when a fee accrual cannot be represented
	// in the recorded balance without wrapping.
	ErrFeeOverflow = errors.New("fee accrual would overflow recorded balance")

	// ErrFundsLocked is returned by a withdrawal while the custodial balance
	// does not cover the recorded fee balance.
	ErrFundsLocked = errors.New("custodial balance below recorded fees")

	// ErrDrawInProgress is returned to entries, refunds and withdrawals that
	// arrive while a draw settlement is mid-flight.
	ErrDrawInProgress = errors.New("draw settlement in progress")

	// ErrRefundInProgress is returned to entries, draws and withdrawals that
	// arrive while a refund's transfer is mid-flight. A reentrant refund is
	// not rejected here; it runs into the committed tombstone instead.
	ErrRefundInProgress = errors.New("refund transfer in progress")
)
