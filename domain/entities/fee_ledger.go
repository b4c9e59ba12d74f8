package entities

// FeeLedger tracks operator fees that have accrued but not yet been
// withdrawn. The recorded balance is the ledger's own bookkeeping; the
// custodial balance actually held can legitimately exceed it (value can
// be forced in from outside the tracked paths), so withdrawal gates on
// "custody covers recorded", never on exact equality.
type FeeLedger struct {
	recorded Amount
}

// NewFeeLedger returns a ledger with a zero recorded balance.
func NewFeeLedger() *FeeLedger {
	return &FeeLedger{}
}

// Accrue adds amount to the recorded balance with checked arithmetic.
// A sum that cannot be represented fails with ErrFeeOverflow and leaves
// the recorded balance unchanged.
func (l *FeeLedger) Accrue(amount Amount) error {
	sum, ok := l.recorded.Add(amount)
	if !ok {
		return ErrFeeOverflow
	}
	l.recorded = sum
	return nil
}

// Deduct removes amount from the recorded balance. Settlement rollback
// only; the amount deducted is always one this ledger accrued earlier in
// the same operation, so shortfall indicates a bug.
func (l *FeeLedger) Deduct(amount Amount) bool {
	diff, ok := l.recorded.Sub(amount)
	if !ok {
		return false
	}
	l.recorded = diff
	return ok
}

// Covered reports whether custody is sufficient to pay out the recorded
// balance. Strictly-greater custody is fine.
func (l *FeeLedger) Covered(custody Amount) bool {
	return custody.Cmp(l.recorded) >= 0
}

// Zero clears the recorded balance and returns what was recorded. The
// caller zeroes before transferring so a reentrant withdrawal observes
// an already-empty ledger.
func (l *FeeLedger) Zero() Amount {
	withdrawn := l.recorded
	l.recorded = Amount{}
	return withdrawn
}

// Restore adds a previously zeroed amount back after a failed transfer.
// It is a checked add, not an overwrite, so accruals that landed while
// the transfer was in flight survive the rollback.
func (l *FeeLedger) Restore(amount Amount) error {
	return l.Accrue(amount)
}

// Recorded returns the current recorded balance.
func (l *FeeLedger) Recorded() Amount {
	return l.recorded
}
