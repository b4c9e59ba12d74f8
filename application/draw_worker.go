package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"raffler/domain/entities"
	"raffler/domain/interfaces"
)

// DrawWorker settles rounds on schedule: it sleeps until the live round
// becomes closeable, attempts the draw, archives the settlement and
// reschedules for the next round. A round that is closeable but short of
// entrants is a re-check condition, not a failure; the worker polls until
// enough entrants have joined.
type DrawWorker struct {
	engine        interfaces.RaffleService
	uowFactory    UnitOfWorkFactory
	retryInterval time.Duration
}

// NewDrawWorker creates a new draw worker
func NewDrawWorker(engine interfaces.RaffleService, uowFactory UnitOfWorkFactory, retryInterval time.Duration) *DrawWorker {
	if retryInterval <= 0 {
		retryInterval = time.Minute
	}
	return &DrawWorker{
		engine:        engine,
		uowFactory:    uowFactory,
		retryInterval: retryInterval,
	}
}

// Start begins the draw worker and returns a stop function
func (w *DrawWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Draw worker started")

		for {
			wait := w.nextWait()
			if wait > 0 {
				log.WithField("wait", wait).Debug("Waiting for round to become closeable")
				select {
				case <-ctx.Done():
					log.Info("Draw worker shutting down (context cancelled)...")
					return
				case <-stopChan:
					log.Info("Draw worker shutting down (stop requested)...")
					return
				case <-time.After(wait):
				}
			}

			if err := w.settleOnce(ctx); err != nil {
				log.WithError(err).Error("Round settlement attempt failed")
			}

			// Yield to shutdown between attempts
			select {
			case <-ctx.Done():
				log.Info("Draw worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw worker shutting down (stop requested)...")
				return
			default:
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// nextWait returns how long until the live round is closeable, or the
// retry interval if it already is (settlement just failed or is short of
// entrants).
func (w *DrawWorker) nextWait() time.Duration {
	snapshot := w.engine.Snapshot()
	wait := time.Until(snapshot.RoundStarted.Add(snapshot.RoundDuration))
	if wait <= 0 {
		return w.retryInterval
	}
	return wait
}

// settleOnce attempts one draw and archives a successful settlement.
func (w *DrawWorker) settleOnce(ctx context.Context) error {
	settlement, err := w.engine.TryDraw(ctx, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, entities.ErrRaffleNotOver):
			// Raced a refund-extended schedule; just re-check
			return nil
		case errors.Is(err, entities.ErrInsufficientEntrants):
			log.WithField("activeCount", w.engine.Snapshot().ActiveCount).
				Info("Round closeable but short of entrants, will retry")
			return nil
		default:
			return fmt.Errorf("draw failed: %w", err)
		}
	}

	if err := w.archive(ctx, settlement); err != nil {
		// The round settled and the winner is paid; a failed archive write
		// loses history, not money
		log.WithFields(log.Fields{
			"round": settlement.RoundToken,
			"error": err,
		}).Error("Failed to archive settlement")
	}

	log.WithFields(log.Fields{
		"round":    settlement.RoundToken,
		"winner":   settlement.Winner,
		"tier":     settlement.Tier,
		"entrants": settlement.EntrantCount,
		"prize":    settlement.Prize.String(),
	}).Info("Round settled and archived")

	return nil
}

func (w *DrawWorker) archive(ctx context.Context, settlement *entities.Settlement) error {
	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RoundRepository().RecordSettlement(ctx, settlement); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
