package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/interfaces"
)

// winnerDomain tags the winner-selection draw.
const winnerDomain = "raffle:winner:"

// RaffleConfig is the immutable round configuration supplied at
// construction. Entry fee and duration never change for the lifetime of
// the engine; the fee recipient may be updated later.
type RaffleConfig struct {
	EntryFee      entities.Amount
	RoundDuration time.Duration
	FeeRecipient  entities.AccountID

	// PrizePercent and FeePercent split the collected pot with floor
	// division; they need not sum to 100 exactly, and whatever floor
	// rounding leaves over stays in custody untracked.
	PrizePercent uint64
	FeePercent   uint64
}

// Validate rejects configurations the engine cannot run with.
func (c RaffleConfig) Validate() error {
	if c.EntryFee.IsZero() {
		return fmt.Errorf("entry fee must be positive")
	}
	if c.RoundDuration <= 0 {
		return fmt.Errorf("round duration must be positive")
	}
	if c.FeeRecipient == "" {
		return fmt.Errorf("fee recipient is required")
	}
	if c.PrizePercent+c.FeePercent > 100 {
		return fmt.Errorf("prize + fee percent is %d, must be <= 100", c.PrizePercent+c.FeePercent)
	}
	return nil
}

// raffleService implements the raffle ledger and prize-distribution
// engine. It holds no internal lock: the caller serializes operations,
// and every bookkeeping mutation is committed before any treasury send so
// a synchronous callback re-entering the engine observes committed state.
type raffleService struct {
	cfg          RaffleConfig
	feeRecipient entities.AccountID

	registry   *entities.EntrantRegistry
	ledger     *entities.FeeLedger
	round      entities.Round
	phase      entities.Phase
	lastWinner *entities.WinnerRecord

	treasury  interfaces.TreasuryPort
	random    interfaces.RandomSource
	assigner  interfaces.PrizeAssigner
	minter    interfaces.CollectibleMinter
	publisher interfaces.EventPublisher
}

// NewRaffleService creates the engine with an open round starting now.
func NewRaffleService(
	cfg RaffleConfig,
	treasury interfaces.TreasuryPort,
	random interfaces.RandomSource,
	assigner interfaces.PrizeAssigner,
	minter interfaces.CollectibleMinter,
	publisher interfaces.EventPublisher,
) (interfaces.RaffleService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid raffle config: %w", err)
	}
	return &raffleService{
		cfg:          cfg,
		feeRecipient: cfg.FeeRecipient,
		registry:     entities.NewEntrantRegistry(),
		ledger:       entities.NewFeeLedger(),
		round:        entities.NewRound(time.Now().UTC()),
		phase:        entities.PhaseOpen,
		treasury:     treasury,
		random:       random,
		assigner:     assigner,
		minter:       minter,
		publisher:    publisher,
	}, nil
}

// guardOpen rejects an operation while the engine is inside another
// operation's external transfer.
func (s *raffleService) guardOpen() error {
	switch s.phase {
	case entities.PhaseSettling:
		return entities.ErrDrawInProgress
	case entities.PhaseRefunding:
		return entities.ErrRefundInProgress
	}
	return nil
}

// Enter joins a batch of identities into the current round.
func (s *raffleService) Enter(ctx context.Context, identities []entities.AccountID, paid entities.Amount) error {
	if err := s.guardOpen(); err != nil {
		return err
	}

	// An expected payment that cannot even be represented can never be
	// matched by a real tender.
	expected, ok := s.cfg.EntryFee.MulUint64(uint64(len(identities)))
	if !ok || !paid.Equal(expected) {
		return entities.ErrPaymentMismatch
	}

	if err := s.registry.Enter(identities); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"round":       s.round.Token,
		"entrants":    len(identities),
		"activeCount": s.registry.ActiveCount(),
		"paid":        paid.String(),
	}).Debug("Entrants joined raffle")

	// The empty batch is announced too: joining nobody for nothing is a
	// valid, observable call.
	s.publish(events.EntrantsJoinedEvent{
		RoundToken:  s.round.Token,
		Entrants:    identities,
		Paid:        paid,
		ActiveCount: s.registry.ActiveCount(),
	})
	return nil
}

// IndexOf reports the active slot an identity holds, if any.
func (s *raffleService) IndexOf(identity entities.AccountID) (int, bool) {
	return s.registry.IndexOf(identity)
}

// Refund tombstones the caller's slot and returns the entry fee. The
// tombstone is committed before the send, so a reentrant refund through
// the treasury callback sees the slot already cleared. The send itself
// runs under the Refunding phase: a reentrant entry, draw or withdrawal
// inside the callback would otherwise mutate state the transfer-failure
// rollback cannot account for.
func (s *raffleService) Refund(ctx context.Context, index int, caller entities.AccountID) error {
	if s.phase == entities.PhaseSettling {
		return entities.ErrDrawInProgress
	}

	if err := s.registry.Tombstone(index, caller); err != nil {
		return err
	}

	// Restore the prior phase, not Open: a nested refund finishing must
	// not lift the outer refund's guard.
	prevPhase := s.phase
	s.phase = entities.PhaseRefunding
	err := s.treasury.Send(ctx, caller, s.cfg.EntryFee)
	s.phase = prevPhase

	if err != nil {
		if !s.registry.Restore(index) {
			log.WithFields(log.Fields{
				"slot":    index,
				"entrant": caller,
			}).Error("Refund rollback found no tombstone to restore")
		}
		return fmt.Errorf("refund of slot %d: %w: %w", index, entities.ErrTransferFailed, err)
	}

	log.WithFields(log.Fields{
		"round":   s.round.Token,
		"slot":    index,
		"entrant": caller,
	}).Debug("Entrant refunded")

	s.publish(events.EntrantRefundedEvent{
		RoundToken: s.round.Token,
		Entrant:    caller,
		SlotIndex:  index,
		Amount:     s.cfg.EntryFee,
	})
	return nil
}

// TryDraw settles the current round: picks a winner over the active
// slots in order (tombstones skipped), splits the pot, accrues the
// operator fee share, resets the round and pays the prize last. Any
// failure leaves no partial settlement behind.
func (s *raffleService) TryDraw(ctx context.Context, now time.Time) (*entities.Settlement, error) {
	if err := s.guardOpen(); err != nil {
		return nil, err
	}
	if !s.round.Over(now, s.cfg.RoundDuration) {
		return nil, entities.ErrRaffleNotOver
	}
	activeCount := s.registry.ActiveCount()
	if activeCount < entities.MinEntrants {
		return nil, entities.ErrInsufficientEntrants
	}

	settledRound := s.round

	winnerDraw, err := s.random.Draw(ctx, append([]byte(winnerDomain), settledRound.Token[:]...))
	if err != nil {
		return nil, fmt.Errorf("winner draw: %w", err)
	}
	winner, winnerSlot, ok := s.registry.ActiveAt(int(winnerDraw % uint64(activeCount)))
	if !ok {
		return nil, fmt.Errorf("winner index %d out of %d active slots", winnerDraw%uint64(activeCount), activeCount)
	}

	pot, ok := s.cfg.EntryFee.MulUint64(uint64(activeCount))
	if !ok {
		return nil, entities.ErrFeeOverflow
	}
	prize, ok := pot.Percent(s.cfg.PrizePercent)
	if !ok {
		return nil, entities.ErrFeeOverflow
	}
	feeShare, ok := pot.Percent(s.cfg.FeePercent)
	if !ok {
		return nil, entities.ErrFeeOverflow
	}

	// Second, independent draw: reusing the winner value here would
	// correlate rarity with placement.
	tier, rarityDraw, err := s.assigner.Assign(ctx, settledRound.Token)
	if err != nil {
		return nil, err
	}

	// Everything below mutates state. The Settling phase makes reentrant
	// entries, refunds, withdrawals and draws fail fast until this
	// operation finishes, successfully or not.
	s.phase = entities.PhaseSettling
	defer func() { s.phase = entities.PhaseOpen }()

	if err := s.ledger.Accrue(feeShare); err != nil {
		return nil, err
	}

	slotsBefore := s.registry.Snapshot()
	winnerBefore := s.lastWinner

	s.registry.ClearAll()
	s.round = entities.NewRound(now)
	record := &entities.WinnerRecord{
		Winner:     winner,
		Tier:       tier,
		RoundToken: settledRound.Token,
		Prize:      prize,
		SettledAt:  now,
	}
	s.lastWinner = record

	if err := s.treasury.Send(ctx, winner, prize); err != nil {
		s.registry.RestoreSnapshot(slotsBefore)
		s.round = settledRound
		s.lastWinner = winnerBefore
		if !s.ledger.Deduct(feeShare) {
			log.WithField("feeShare", feeShare.String()).
				Error("Fee ledger below rollback amount after failed payout")
		}
		return nil, fmt.Errorf("prize payout to %s: %w: %w", winner, entities.ErrTransferFailed, err)
	}

	log.WithFields(log.Fields{
		"round":    settledRound.Token,
		"winner":   winner,
		"slot":     winnerSlot,
		"tier":     tier,
		"entrants": activeCount,
		"pot":      pot.String(),
		"prize":    prize.String(),
		"feeShare": feeShare.String(),
	}).Info("Raffle round settled")

	// Issuance is an external concern: a failed mint does not unwind a
	// settled round.
	if err := s.minter.Mint(ctx, winner, tier, settledRound.Token); err != nil {
		log.WithFields(log.Fields{
			"round":  settledRound.Token,
			"winner": winner,
			"error":  err,
		}).Error("Collectible mint request failed")
	}

	s.publish(events.WinnerDrawnEvent{
		RoundToken:   settledRound.Token,
		Winner:       winner,
		Tier:         tier,
		EntrantCount: activeCount,
		Pot:          pot,
		Prize:        prize,
		FeeShare:     feeShare,
	})

	return &entities.Settlement{
		RoundToken:   settledRound.Token,
		Winner:       winner,
		Tier:         tier,
		EntrantCount: activeCount,
		Pot:          pot,
		Prize:        prize,
		FeeShare:     feeShare,
		WinnerDraw:   winnerDraw,
		RarityDraw:   rarityDraw,
		SettledAt:    now,
	}, nil
}

// Withdraw pays the recorded operator fees to the fee recipient. The
// ledger is zeroed before the send; rollback adds the amount back with a
// checked add so accruals landing mid-transfer survive.
func (s *raffleService) Withdraw(ctx context.Context) (*entities.Withdrawal, error) {
	if err := s.guardOpen(); err != nil {
		return nil, err
	}

	custody, err := s.treasury.Balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodial balance lookup: %w", err)
	}
	if !s.ledger.Covered(custody) {
		return nil, entities.ErrFundsLocked
	}

	amount := s.ledger.Zero()
	recipient := s.feeRecipient

	if err := s.treasury.Send(ctx, recipient, amount); err != nil {
		if restoreErr := s.ledger.Restore(amount); restoreErr != nil {
			log.WithField("amount", amount.String()).
				Error("Fee ledger overflow restoring failed withdrawal")
		}
		return nil, fmt.Errorf("fee withdrawal to %s: %w: %w", recipient, entities.ErrTransferFailed, err)
	}

	log.WithFields(log.Fields{
		"recipient": recipient,
		"amount":    amount.String(),
	}).Info("Operator fees withdrawn")

	s.publish(events.FeesWithdrawnEvent{
		Recipient: recipient,
		Amount:    amount,
	})

	return &entities.Withdrawal{
		Recipient:   recipient,
		Amount:      amount,
		WithdrawnAt: time.Now().UTC(),
	}, nil
}

// SetFeeRecipient updates the payout destination for future withdrawals.
func (s *raffleService) SetFeeRecipient(recipient entities.AccountID) {
	log.WithFields(log.Fields{
		"old": s.feeRecipient,
		"new": recipient,
	}).Info("Fee recipient updated")
	s.feeRecipient = recipient
}

// Snapshot returns the observable round state.
func (s *raffleService) Snapshot() interfaces.RoundSnapshot {
	var last *entities.WinnerRecord
	if s.lastWinner != nil {
		copied := *s.lastWinner
		last = &copied
	}
	return interfaces.RoundSnapshot{
		EntryFee:      s.cfg.EntryFee,
		RoundDuration: s.cfg.RoundDuration,
		RoundToken:    s.round.Token,
		RoundStarted:  s.round.StartedAt,
		Phase:         s.phase,
		Slots:         s.registry.Slots(),
		ActiveCount:   s.registry.ActiveCount(),
		RecordedFees:  s.ledger.Recorded(),
		LastWinner:    last,
	}
}

// publish is best-effort: settled state is already committed, so a
// publisher failure is logged, not propagated.
func (s *raffleService) publish(event events.Event) {
	if err := s.publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to publish domain event")
	}
}
