package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"raffler/domain/entities"
	"raffler/domain/events"
	"raffler/domain/interfaces"
	"raffler/domain/testhelpers"
)

// engineFixture bundles the engine with its mocked ports
type engineFixture struct {
	engine    interfaces.RaffleService
	treasury  *testhelpers.MockTreasuryPort
	random    *testhelpers.MockRandomSource
	assigner  *testhelpers.MockPrizeAssigner
	minter    *testhelpers.MockCollectibleMinter
	publisher *testhelpers.MockEventPublisher
	cfg       RaffleConfig
}

func newEngineFixture(t *testing.T, opts ...func(*RaffleConfig)) *engineFixture {
	t.Helper()

	cfg := RaffleConfig{
		EntryFee:      entities.NewAmount(1000),
		RoundDuration: time.Hour,
		FeeRecipient:  "operator",
		PrizePercent:  80,
		FeePercent:    20,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &engineFixture{
		treasury:  new(testhelpers.MockTreasuryPort),
		random:    new(testhelpers.MockRandomSource),
		assigner:  new(testhelpers.MockPrizeAssigner),
		minter:    new(testhelpers.MockCollectibleMinter),
		publisher: new(testhelpers.MockEventPublisher),
		cfg:       cfg,
	}
	// Event emission is best-effort and not under test unless a case
	// opts in with stricter expectations
	f.publisher.On("Publish", mock.Anything).Return(nil)

	engine, err := NewRaffleService(cfg, f.treasury, f.random, f.assigner, f.minter, f.publisher)
	require.NoError(t, err)
	f.engine = engine
	return f
}

// enterFour joins four entrants into the current round
func (f *engineFixture) enterFour(t *testing.T) []entities.AccountID {
	t.Helper()
	ids := []entities.AccountID{"alice", "bob", "carol", "dave"}
	paid, ok := f.cfg.EntryFee.MulUint64(uint64(len(ids)))
	require.True(t, ok)
	require.NoError(t, f.engine.Enter(context.Background(), ids, paid))
	return ids
}

// drawTime is comfortably past the round end
func (f *engineFixture) drawTime() time.Time {
	return f.engine.Snapshot().RoundStarted.Add(f.cfg.RoundDuration + time.Minute)
}

func TestRaffleConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := RaffleConfig{
		EntryFee:      entities.NewAmount(1000),
		RoundDuration: time.Hour,
		FeeRecipient:  "operator",
		PrizePercent:  80,
		FeePercent:    20,
	}
	assert.NoError(t, valid.Validate())

	zeroFee := valid
	zeroFee.EntryFee = entities.Amount{}
	assert.Error(t, zeroFee.Validate())

	noRecipient := valid
	noRecipient.FeeRecipient = ""
	assert.Error(t, noRecipient.Validate())

	overSplit := valid
	overSplit.PrizePercent = 90
	overSplit.FeePercent = 20
	assert.Error(t, overSplit.Validate())
}

func TestRaffleService_Enter(t *testing.T) {
	t.Parallel()

	t.Run("accepts a matching payment", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)

		err := f.engine.Enter(context.Background(), []entities.AccountID{"alice", "bob"}, entities.NewAmount(2000))
		require.NoError(t, err)
		assert.Equal(t, 2, f.engine.Snapshot().ActiveCount)
	})

	t.Run("rejects a payment mismatch", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)

		err := f.engine.Enter(context.Background(), []entities.AccountID{"alice", "bob"}, entities.NewAmount(1999))
		assert.ErrorIs(t, err, entities.ErrPaymentMismatch)
		assert.Zero(t, f.engine.Snapshot().ActiveCount)
	})

	t.Run("rejects duplicates across batches", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)

		require.NoError(t, f.engine.Enter(context.Background(), []entities.AccountID{"alice"}, entities.NewAmount(1000)))
		err := f.engine.Enter(context.Background(), []entities.AccountID{"bob", "alice"}, entities.NewAmount(2000))
		assert.ErrorIs(t, err, entities.ErrDuplicateEntrant)
		assert.Equal(t, 1, f.engine.Snapshot().ActiveCount,
			"the whole batch is rejected, including the fresh identity")
	})

	t.Run("rejects duplicates within one batch", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)

		err := f.engine.Enter(context.Background(), []entities.AccountID{"alice", "alice"}, entities.NewAmount(2000))
		assert.ErrorIs(t, err, entities.ErrDuplicateEntrant)
	})

	t.Run("accepts an empty batch with zero payment and still announces it", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)

		require.NoError(t, f.engine.Enter(context.Background(), nil, entities.Amount{}))

		joined := false
		for _, call := range f.publisher.Calls {
			if event, ok := call.Arguments.Get(0).(events.EntrantsJoinedEvent); ok {
				joined = true
				assert.Empty(t, event.Entrants)
			}
		}
		assert.True(t, joined, "the empty batch is announced like any other")
	})

	t.Run("rejects an empty batch with payment attached", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)

		err := f.engine.Enter(context.Background(), nil, entities.NewAmount(1))
		assert.ErrorIs(t, err, entities.ErrPaymentMismatch)
	})
}

func TestRaffleService_IndexOf(t *testing.T) {
	t.Parallel()
	f := newEngineFixture(t)
	f.enterFour(t)

	idx, ok := f.engine.IndexOf("alice")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = f.engine.IndexOf("mallory")
	assert.False(t, ok)
	assert.Equal(t, 0, idx)
}

func TestRaffleService_Refund(t *testing.T) {
	t.Parallel()

	t.Run("pays back the entry fee and tombstones the slot", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).Return(nil).Once()

		require.NoError(t, f.engine.Refund(context.Background(), 1, "bob"))

		f.treasury.AssertExpectations(t)
		assert.Equal(t, 3, f.engine.Snapshot().ActiveCount)
		assert.True(t, f.engine.Snapshot().Slots[1].Refunded, "slot stays visible as a tombstone")

		err := f.engine.Refund(context.Background(), 1, "bob")
		assert.ErrorIs(t, err, entities.ErrAlreadyRefunded)
	})

	t.Run("rejects a caller that does not hold the slot", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)

		assert.ErrorIs(t, f.engine.Refund(context.Background(), 0, "bob"), entities.ErrNotOwner)
		assert.ErrorIs(t, f.engine.Refund(context.Background(), 9, "bob"), entities.ErrNotOwner)
		f.treasury.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rolls the tombstone back when the transfer fails", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).
			Return(errors.New("wire down")).Once()

		err := f.engine.Refund(context.Background(), 1, "bob")
		require.ErrorIs(t, err, entities.ErrTransferFailed)
		assert.Contains(t, err.Error(), "wire down", "the port's failure message survives wrapping")

		// The slot is active again and a retry succeeds
		assert.Equal(t, 4, f.engine.Snapshot().ActiveCount)
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).Return(nil).Once()
		assert.NoError(t, f.engine.Refund(context.Background(), 1, "bob"))
	})

	t.Run("reentrant entry during the refund transfer cannot corrupt the rollback", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)

		// bob's payout callback re-enters bob before the transfer fails.
		// Unguarded, the rollback would re-activate slot 1 on top of the
		// fresh slot, leaving bob holding two active slots.
		var enterErr error
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).
			Run(func(args mock.Arguments) {
				enterErr = f.engine.Enter(context.Background(), []entities.AccountID{"bob"}, f.cfg.EntryFee)
			}).
			Return(errors.New("wire down")).Once()

		err := f.engine.Refund(context.Background(), 1, "bob")
		require.ErrorIs(t, err, entities.ErrTransferFailed)
		assert.ErrorIs(t, enterErr, entities.ErrRefundInProgress)

		snapshot := f.engine.Snapshot()
		assert.Equal(t, 4, snapshot.ActiveCount)
		require.Len(t, snapshot.Slots, 4, "the reentrant entry must not have appended a slot")

		activeHolders := make(map[entities.AccountID]int)
		for _, slot := range snapshot.Slots {
			if !slot.Refunded {
				activeHolders[slot.Holder]++
			}
		}
		assert.Equal(t, 1, activeHolders["bob"], "an identity holds at most one active slot")

		idx, ok := f.engine.IndexOf("bob")
		assert.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("reentrant draw and withdrawal during the refund transfer are rejected", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)
		tokenBefore := f.engine.Snapshot().RoundToken

		// A draw settling mid-refund would ClearAll the registry and leave
		// the refund's failed-transfer rollback with nothing to restore:
		// the refunder excluded from the pot and never paid.
		var drawErr, withdrawErr error
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).
			Run(func(args mock.Arguments) {
				_, drawErr = f.engine.TryDraw(context.Background(), f.drawTime())
				_, withdrawErr = f.engine.Withdraw(context.Background())
			}).
			Return(errors.New("wire down")).Once()

		err := f.engine.Refund(context.Background(), 1, "bob")
		require.ErrorIs(t, err, entities.ErrTransferFailed)
		assert.ErrorIs(t, drawErr, entities.ErrRefundInProgress)
		assert.ErrorIs(t, withdrawErr, entities.ErrRefundInProgress)

		snapshot := f.engine.Snapshot()
		assert.Equal(t, 4, snapshot.ActiveCount, "the tombstone rollback survived")
		assert.Equal(t, tokenBefore, snapshot.RoundToken, "no settlement happened mid-refund")
		assert.Equal(t, entities.PhaseOpen, snapshot.Phase)

		// bob can retry once the treasury recovers
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).Return(nil).Once()
		assert.NoError(t, f.engine.Refund(context.Background(), 1, "bob"))
	})

	t.Run("reentrant refund through the transfer callback pays once", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)

		var reentrantErr error
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).
			Run(func(args mock.Arguments) {
				// bob's payout callback tries to refund the same slot again
				reentrantErr = f.engine.Refund(context.Background(), 1, "bob")
			}).
			Return(nil).Once()

		require.NoError(t, f.engine.Refund(context.Background(), 1, "bob"))

		assert.ErrorIs(t, reentrantErr, entities.ErrAlreadyRefunded,
			"the reentrant call must observe the committed tombstone")
		f.treasury.AssertNumberOfCalls(t, "Send", 1)
	})
}

func TestRaffleService_TryDraw(t *testing.T) {
	t.Parallel()

	t.Run("rejects a draw before the round is over", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)

		_, err := f.engine.TryDraw(context.Background(), f.engine.Snapshot().RoundStarted.Add(time.Minute))
		assert.ErrorIs(t, err, entities.ErrRaffleNotOver)
	})

	t.Run("rejects a draw short of entrants", func(t *testing.T) {
		t.Parallel()

		for count := 0; count <= 3; count++ {
			f := newEngineFixture(t)
			ids := []entities.AccountID{"alice", "bob", "carol"}[:count]
			paid, _ := f.cfg.EntryFee.MulUint64(uint64(count))
			require.NoError(t, f.engine.Enter(context.Background(), ids, paid))

			_, err := f.engine.TryDraw(context.Background(), f.drawTime())
			assert.ErrorIs(t, err, entities.ErrInsufficientEntrants, "%d entrants", count)
		}
	})

	t.Run("settles the round end to end", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)
		tokenBefore := f.engine.Snapshot().RoundToken
		now := f.drawTime()

		// value 5 mod 4 entrants selects active position 1: bob
		f.random.On("Draw", mock.Anything, mock.Anything).Return(uint64(5), nil).Once()
		f.assigner.On("Assign", mock.Anything, tokenBefore).Return(entities.TierRare, uint64(142), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), entities.NewAmount(3200)).Return(nil).Once()
		f.minter.On("Mint", mock.Anything, entities.AccountID("bob"), entities.TierRare, tokenBefore).Return(nil).Once()

		settlement, err := f.engine.TryDraw(context.Background(), now)
		require.NoError(t, err)

		// Pot of 4 x 1000 splits 80/20 into 3200 + 800
		assert.Equal(t, entities.AccountID("bob"), settlement.Winner)
		assert.Equal(t, entities.TierRare, settlement.Tier)
		assert.Equal(t, 4, settlement.EntrantCount)
		assert.True(t, settlement.Pot.Equal(entities.NewAmount(4000)))
		assert.True(t, settlement.Prize.Equal(entities.NewAmount(3200)))
		assert.True(t, settlement.FeeShare.Equal(entities.NewAmount(800)))
		assert.Equal(t, uint64(5), settlement.WinnerDraw)
		assert.Equal(t, uint64(142), settlement.RarityDraw)
		assert.Equal(t, tokenBefore, settlement.RoundToken)

		snapshot := f.engine.Snapshot()
		assert.Empty(t, snapshot.Slots, "registry cleared to empty immediately after settlement")
		assert.NotEqual(t, tokenBefore, snapshot.RoundToken, "fresh round token")
		assert.Equal(t, now, snapshot.RoundStarted)
		assert.True(t, snapshot.RecordedFees.Equal(entities.NewAmount(800)))
		require.NotNil(t, snapshot.LastWinner)
		assert.Equal(t, entities.AccountID("bob"), snapshot.LastWinner.Winner)
		assert.Equal(t, entities.TierRare, snapshot.LastWinner.Tier)

		f.treasury.AssertExpectations(t)
		f.minter.AssertExpectations(t)
	})

	t.Run("skips tombstoned slots when mapping the winner", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)
		f.treasury.On("Send", mock.Anything, entities.AccountID("bob"), f.cfg.EntryFee).Return(nil).Once()
		require.NoError(t, f.engine.Refund(context.Background(), 1, "bob"))

		// 3 active entrants remain: alice, carol, dave. 4 mod 3 = 1 -> carol.
		// Prize is floor(3000*80/100) = 2400.
		f.random.On("Draw", mock.Anything, mock.Anything).Return(uint64(4), nil).Once()
		f.assigner.On("Assign", mock.Anything, mock.Anything).Return(entities.TierCommon, uint64(10), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("carol"), entities.NewAmount(2400)).Return(nil).Once()
		f.minter.On("Mint", mock.Anything, entities.AccountID("carol"), entities.TierCommon, mock.Anything).Return(nil).Once()

		settlement, err := f.engine.TryDraw(context.Background(), f.drawTime())
		require.NoError(t, err)
		assert.Equal(t, entities.AccountID("carol"), settlement.Winner)
		assert.Equal(t, 3, settlement.EntrantCount)
	})

	t.Run("rolls everything back when the prize transfer fails", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)
		tokenBefore := f.engine.Snapshot().RoundToken

		f.random.On("Draw", mock.Anything, mock.Anything).Return(uint64(0), nil)
		f.assigner.On("Assign", mock.Anything, mock.Anything).Return(entities.TierCommon, uint64(3), nil)
		f.treasury.On("Send", mock.Anything, entities.AccountID("alice"), entities.NewAmount(3200)).
			Return(errors.New("wire down")).Once()

		_, err := f.engine.TryDraw(context.Background(), f.drawTime())
		require.ErrorIs(t, err, entities.ErrTransferFailed)

		snapshot := f.engine.Snapshot()
		assert.Equal(t, 4, snapshot.ActiveCount, "entrants restored, no partial settlement")
		assert.Equal(t, tokenBefore, snapshot.RoundToken, "round not reset")
		assert.True(t, snapshot.RecordedFees.IsZero(), "fee accrual unwound")
		assert.Nil(t, snapshot.LastWinner)
		assert.Equal(t, entities.PhaseOpen, snapshot.Phase)
		f.minter.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		// The same draw succeeds once the treasury recovers
		f.treasury.On("Send", mock.Anything, entities.AccountID("alice"), entities.NewAmount(3200)).Return(nil).Once()
		f.minter.On("Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		_, err = f.engine.TryDraw(context.Background(), f.drawTime())
		assert.NoError(t, err)
	})

	t.Run("a failed mint does not unwind the settlement", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)

		f.random.On("Draw", mock.Anything, mock.Anything).Return(uint64(0), nil).Once()
		f.assigner.On("Assign", mock.Anything, mock.Anything).Return(entities.TierCommon, uint64(3), nil).Once()
		f.treasury.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		f.minter.On("Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("issuer offline")).Once()

		settlement, err := f.engine.TryDraw(context.Background(), f.drawTime())
		require.NoError(t, err)
		assert.NotNil(t, settlement)
		assert.Empty(t, f.engine.Snapshot().Slots)
	})

	t.Run("a pot split the ledger cannot represent aborts untouched", func(t *testing.T) {
		t.Parallel()

		// An entry fee of max/100 keeps the pot representable, but the
		// 80-percent split's intermediate product overflows.
		hugeFee, ok := entities.MaxAmount().Percent(1)
		require.True(t, ok)
		f := newEngineFixture(t, func(cfg *RaffleConfig) {
			cfg.EntryFee = hugeFee
		})
		paid, ok := hugeFee.MulUint64(4)
		require.True(t, ok)
		require.NoError(t, f.engine.Enter(context.Background(),
			[]entities.AccountID{"alice", "bob", "carol", "dave"}, paid))

		f.random.On("Draw", mock.Anything, mock.Anything).Return(uint64(0), nil).Once()

		_, err := f.engine.TryDraw(context.Background(), f.drawTime())
		require.ErrorIs(t, err, entities.ErrFeeOverflow)
		assert.Equal(t, 4, f.engine.Snapshot().ActiveCount)
		assert.True(t, f.engine.Snapshot().RecordedFees.IsZero())
		f.treasury.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reentrant calls during settlement are rejected", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		f.enterFour(t)

		var enterErr, refundErr, withdrawErr, drawErr error
		f.random.On("Draw", mock.Anything, mock.Anything).Return(uint64(0), nil).Once()
		f.assigner.On("Assign", mock.Anything, mock.Anything).Return(entities.TierCommon, uint64(3), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("alice"), entities.NewAmount(3200)).
			Run(func(args mock.Arguments) {
				ctx := context.Background()
				enterErr = f.engine.Enter(ctx, []entities.AccountID{"mallory"}, f.cfg.EntryFee)
				refundErr = f.engine.Refund(ctx, 0, "alice")
				_, withdrawErr = f.engine.Withdraw(ctx)
				_, drawErr = f.engine.TryDraw(ctx, f.drawTime())
			}).
			Return(nil).Once()
		f.minter.On("Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		_, err := f.engine.TryDraw(context.Background(), f.drawTime())
		require.NoError(t, err)

		assert.ErrorIs(t, enterErr, entities.ErrDrawInProgress)
		assert.ErrorIs(t, refundErr, entities.ErrDrawInProgress)
		assert.ErrorIs(t, withdrawErr, entities.ErrDrawInProgress)
		assert.ErrorIs(t, drawErr, entities.ErrDrawInProgress)
	})
}

func TestRaffleService_Withdraw(t *testing.T) {
	t.Parallel()

	// settleWithFees drives one settlement so the ledger records 800
	settleWithFees := func(t *testing.T, f *engineFixture) {
		t.Helper()
		f.enterFour(t)
		f.random.On("Draw", mock.Anything, mock.Anything).Return(uint64(0), nil).Once()
		f.assigner.On("Assign", mock.Anything, mock.Anything).Return(entities.TierCommon, uint64(3), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("alice"), entities.NewAmount(3200)).Return(nil).Once()
		f.minter.On("Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		_, err := f.engine.TryDraw(context.Background(), f.drawTime())
		require.NoError(t, err)
	}

	t.Run("pays the recorded fees and zeroes the ledger", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		settleWithFees(t, f)

		f.treasury.On("Balance", mock.Anything).Return(entities.NewAmount(800), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("operator"), entities.NewAmount(800)).Return(nil).Once()

		withdrawal, err := f.engine.Withdraw(context.Background())
		require.NoError(t, err)
		assert.Equal(t, entities.AccountID("operator"), withdrawal.Recipient)
		assert.True(t, withdrawal.Amount.Equal(entities.NewAmount(800)))
		assert.True(t, f.engine.Snapshot().RecordedFees.IsZero())
	})

	t.Run("succeeds when custody strictly exceeds the record", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		settleWithFees(t, f)

		// Unsolicited inbound value pushed custody above the record;
		// that must never lock withdrawal
		f.treasury.On("Balance", mock.Anything).Return(entities.NewAmount(999999), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("operator"), entities.NewAmount(800)).Return(nil).Once()

		_, err := f.engine.Withdraw(context.Background())
		assert.NoError(t, err)
	})

	t.Run("locks when custody falls short of the record", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		settleWithFees(t, f)

		f.treasury.On("Balance", mock.Anything).Return(entities.NewAmount(799), nil).Once()

		_, err := f.engine.Withdraw(context.Background())
		assert.ErrorIs(t, err, entities.ErrFundsLocked)
		assert.True(t, f.engine.Snapshot().RecordedFees.Equal(entities.NewAmount(800)),
			"the record survives a locked withdrawal")
	})

	t.Run("restores the ledger when the transfer fails", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		settleWithFees(t, f)

		f.treasury.On("Balance", mock.Anything).Return(entities.NewAmount(800), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("operator"), entities.NewAmount(800)).
			Return(errors.New("wire down")).Once()

		_, err := f.engine.Withdraw(context.Background())
		require.ErrorIs(t, err, entities.ErrTransferFailed)
		assert.True(t, f.engine.Snapshot().RecordedFees.Equal(entities.NewAmount(800)))
	})

	t.Run("reentrant withdrawal observes the zeroed ledger", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		settleWithFees(t, f)

		var reentrant *entities.Withdrawal
		var reentrantErr error
		f.treasury.On("Balance", mock.Anything).Return(entities.NewAmount(800), nil)
		f.treasury.On("Send", mock.Anything, entities.AccountID("operator"), entities.NewAmount(800)).
			Run(func(args mock.Arguments) {
				reentrant, reentrantErr = f.engine.Withdraw(context.Background())
			}).
			Return(nil).Once()
		// The inner withdrawal sees nothing recorded and sends zero
		f.treasury.On("Send", mock.Anything, entities.AccountID("operator"), entities.Amount{}).Return(nil).Once()

		withdrawal, err := f.engine.Withdraw(context.Background())
		require.NoError(t, err)
		assert.True(t, withdrawal.Amount.Equal(entities.NewAmount(800)))

		require.NoError(t, reentrantErr)
		assert.True(t, reentrant.Amount.IsZero(),
			"a reentrant withdrawal must not double-pay the fees")
	})

	t.Run("pays the updated fee recipient", func(t *testing.T) {
		t.Parallel()
		f := newEngineFixture(t)
		settleWithFees(t, f)

		f.engine.SetFeeRecipient("new-operator")
		f.treasury.On("Balance", mock.Anything).Return(entities.NewAmount(800), nil).Once()
		f.treasury.On("Send", mock.Anything, entities.AccountID("new-operator"), entities.NewAmount(800)).Return(nil).Once()

		withdrawal, err := f.engine.Withdraw(context.Background())
		require.NoError(t, err)
		assert.Equal(t, entities.AccountID("new-operator"), withdrawal.Recipient)
		f.treasury.AssertExpectations(t)
	})
}

func TestRaffleService_DrawsAreDomainSeparated(t *testing.T) {
	t.Parallel()

	// Real assigner over the mocked source: the settlement must take two
	// draws under different domain tags, never reuse one value
	f := newEngineFixture(t)
	assigner, err := NewPrizeAssigner(f.random, entities.DefaultTierTable())
	require.NoError(t, err)
	engine, err := NewRaffleService(f.cfg, f.treasury, f.random, assigner, f.minter, f.publisher)
	require.NoError(t, err)

	paid, _ := f.cfg.EntryFee.MulUint64(4)
	require.NoError(t, engine.Enter(context.Background(),
		[]entities.AccountID{"alice", "bob", "carol", "dave"}, paid))

	var domains [][]byte
	f.random.On("Draw", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			domain := args.Get(1).([]byte)
			domains = append(domains, append([]byte(nil), domain...))
		}).
		Return(uint64(7), nil).Twice()
	f.treasury.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.minter.On("Mint", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	now := engine.Snapshot().RoundStarted.Add(f.cfg.RoundDuration + time.Minute)
	_, err = engine.TryDraw(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, domains, 2)
	assert.NotEqual(t, domains[0], domains[1],
		"winner and rarity draws must use distinct domain tags")
	f.random.AssertNumberOfCalls(t, "Draw", 2)
}
