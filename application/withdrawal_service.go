package application

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"raffler/domain/interfaces"
)

// FeeWithdrawalService runs operator-fee withdrawals end to end: it asks
// the engine to pay out the recorded fees, then archives the completed
// withdrawal. The engine's own gating (custody coverage, settling phase)
// stays authoritative; this layer only adds the bookkeeping.
type FeeWithdrawalService struct {
	engine     interfaces.RaffleService
	uowFactory UnitOfWorkFactory
}

// NewFeeWithdrawalService creates a new fee withdrawal service
func NewFeeWithdrawalService(engine interfaces.RaffleService, uowFactory UnitOfWorkFactory) *FeeWithdrawalService {
	return &FeeWithdrawalService{
		engine:     engine,
		uowFactory: uowFactory,
	}
}

// StartSweeping periodically pays recorded fees out to the operator. It
// returns a stop function. A sweep that finds nothing recorded still
// succeeds (a zero send is a no-op), so the loop needs no special case.
func (s *FeeWithdrawalService) StartSweeping(ctx context.Context, interval time.Duration) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", interval).Info("Fee sweep started")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Fee sweep shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Fee sweep shutting down (stop requested)...")
				return
			case <-ticker.C:
				if err := s.WithdrawFees(ctx); err != nil {
					log.WithError(err).Error("Scheduled fee sweep failed")
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// WithdrawFees pays out all recorded operator fees and archives the result.
func (s *FeeWithdrawalService) WithdrawFees(ctx context.Context) error {
	withdrawal, err := s.engine.Withdraw(ctx)
	if err != nil {
		return fmt.Errorf("fee withdrawal failed: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.WithdrawalRepository().Record(ctx, withdrawal); err != nil {
		// The funds already moved; a failed archive write loses history,
		// not money
		log.WithFields(log.Fields{
			"recipient": withdrawal.Recipient,
			"amount":    withdrawal.Amount.String(),
			"error":     err,
		}).Error("Failed to archive fee withdrawal")
		return nil
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"recipient": withdrawal.Recipient,
		"amount":    withdrawal.Amount.String(),
	}).Info("Fee withdrawal archived")

	return nil
}
