package infrastructure

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"raffler/domain/entities"
)

// Vault is the in-memory custodial treasury. It holds the full custodial
// balance for the raffle: tracked deposits arrive through Deposit, and
// ForceDeposit models value injected from outside the tracked paths,
// which raises custody without any ledger entry on the raffle side.
//
// An optional SendHook runs before each outbound transfer completes; the
// engine's reentrancy tests use it to re-enter the engine mid-send, the
// way an on-receive callback would.
type Vault struct {
	balance entities.Amount

	// SendHook, when set, is invoked with the pending transfer before the
	// balance is debited. Returning an error fails the send.
	SendHook func(ctx context.Context, to entities.AccountID, amount entities.Amount) error
}

// NewVault creates a vault with an empty custodial balance.
func NewVault() *Vault {
	return &Vault{}
}

// Deposit adds tracked inbound value to custody.
func (v *Vault) Deposit(amount entities.Amount) error {
	sum, ok := v.balance.Add(amount)
	if !ok {
		return fmt.Errorf("deposit of %s overflows custodial balance", amount)
	}
	v.balance = sum
	return nil
}

// ForceDeposit injects unsolicited value into custody. Nothing upstream
// records it; the raffle's withdrawal gate must tolerate custody
// exceeding the recorded fee balance because of calls like this.
func (v *Vault) ForceDeposit(amount entities.Amount) {
	sum, ok := v.balance.Add(amount)
	if !ok {
		log.WithField("amount", amount.String()).
			Warn("Forced deposit overflows custodial balance, ignored")
		return
	}
	v.balance = sum
}

// Send transfers amount out of custody. A zero amount is a successful
// no-op. Insufficient custody is a distinct, reportable failure so the
// caller can roll back its own bookkeeping.
func (v *Vault) Send(ctx context.Context, to entities.AccountID, amount entities.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if v.SendHook != nil {
		if err := v.SendHook(ctx, to, amount); err != nil {
			return fmt.Errorf("send to %s rejected: %w", to, err)
		}
	}
	remaining, ok := v.balance.Sub(amount)
	if !ok {
		return fmt.Errorf("custody %s cannot cover send of %s to %s", v.balance, amount, to)
	}
	v.balance = remaining

	log.WithFields(log.Fields{
		"to":     to,
		"amount": amount.String(),
	}).Debug("Vault sent funds")
	return nil
}

// Balance returns the custodial balance currently held.
func (v *Vault) Balance(ctx context.Context) (entities.Amount, error) {
	return v.balance, nil
}
