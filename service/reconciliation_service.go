package service

import (
	"context"
	"fmt"
	"time"

	"redpockets/events"

	log "github.com/sirupsen/logrus"
)

// ReconciliationService sweeps claim records whose ledger credit never
// completed and applies the missing credit. A claim record is the durable
// entitlement; the pending flag marks the credit side of the two-phase
// intent as unfinished.
type ReconciliationService struct {
	uowFactory UnitOfWorkFactory
	ledger     Ledger
	grace      time.Duration // pending records younger than this are skipped
}

// NewReconciliationService creates a new reconciliation sweeper
func NewReconciliationService(uowFactory UnitOfWorkFactory, ledger Ledger, grace time.Duration) *ReconciliationService {
	return &ReconciliationService{
		uowFactory: uowFactory,
		ledger:     ledger,
		grace:      grace,
	}
}

// Run sweeps on the given interval until the context is cancelled
func (s *ReconciliationService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("Credit reconciliation worker started")

	// Sweep immediately on startup to pick up anything left over from a
	// previous process
	if err := s.Sweep(ctx); err != nil {
		log.WithError(err).Error("Credit reconciliation sweep failed")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("Credit reconciliation worker shutting down")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.WithError(err).Error("Credit reconciliation sweep failed")
			}
		}
	}
}

// Sweep applies any pending credit older than the grace period. Each record
// is handled independently so one failing credit does not block the rest.
func (s *ReconciliationService) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.grace).UnixMilli()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	pending, err := uow.ClaimRecordRepository().GetCreditPending(ctx, cutoff)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to list pending credits: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	log.WithField("count", len(pending)).Warn("Found claim records with unapplied ledger credits")

	for _, record := range pending {
		if err := s.reconcile(ctx, record.ID, record.EnvelopeID, record.Claimant, record.Amount); err != nil {
			log.WithFields(log.Fields{
				"recordId": record.ID,
				"claimant": record.Claimant,
				"amount":   record.Amount,
				"error":    err,
			}).Error("Failed to reconcile pending credit")
		}
	}

	return nil
}

func (s *ReconciliationService) reconcile(ctx context.Context, recordID, envelopeID, claimant string, amount float64) error {
	if err := s.ledger.Credit(ctx, claimant, amount); err != nil {
		return fmt.Errorf("ledger credit failed: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ClaimRecordRepository().MarkCredited(ctx, recordID); err != nil {
		return fmt.Errorf("failed to mark record credited: %w", err)
	}

	uow.EventBus().Publish(events.CreditReconciledEvent{
		RecordID:   recordID,
		EnvelopeID: envelopeID,
		Claimant:   claimant,
		Amount:     amount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"recordId": recordID,
		"claimant": claimant,
		"amount":   amount,
	}).Info("Applied pending ledger credit")

	return nil
}
