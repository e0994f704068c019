package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"redpockets/config"
	"redpockets/events"
	"redpockets/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type envelopeService struct {
	uowFactory UnitOfWorkFactory
	cache      *EnvelopeCache
	previews   PreviewCache
	ledger     Ledger
}

// NewEnvelopeService creates a new distribution engine
func NewEnvelopeService(uowFactory UnitOfWorkFactory, cache *EnvelopeCache, previews PreviewCache, ledger Ledger) EnvelopeService {
	return &envelopeService{
		uowFactory: uowFactory,
		cache:      cache,
		previews:   previews,
		ledger:     ledger,
	}
}

func (s *envelopeService) CreateEnvelope(ctx context.Context, sender string, kind models.EnvelopeKind, totalAmount float64, count int, note string) (*models.Envelope, error) {
	envelope, err := s.buildEnvelope(sender, kind, totalAmount, count, note)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.EnvelopeRepository().Create(ctx, envelope); err != nil {
		return nil, fmt.Errorf("failed to persist envelope: %w", err)
	}

	uow.EventBus().Publish(events.EnvelopeCreatedEvent{
		EnvelopeID:  envelope.ID,
		Sender:      envelope.Sender,
		Kind:        envelope.Kind,
		TotalAmount: envelope.TotalAmount,
		Count:       envelope.Count,
		Note:        envelope.Note,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Put(envelope)

	log.WithFields(log.Fields{
		"envelopeId": envelope.ID,
		"sender":     envelope.Sender,
		"kind":       envelope.Kind,
	}).Info("Created envelope")

	return envelope, nil
}

func (s *envelopeService) CreateEnvelopeWithValidation(ctx context.Context, sender string, kind models.EnvelopeKind, totalAmount float64, count int, note string) (*models.Envelope, error) {
	// Validate before any side effect
	if _, err := s.buildEnvelope(sender, kind, totalAmount, count, note); err != nil {
		return nil, err
	}

	enough, err := s.ledger.HasSufficientBalance(ctx, sender, totalAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check sender balance: %v", ErrLedgerUnavailable, err)
	}
	if !enough {
		return nil, ErrInsufficientBalance
	}

	// Debit first so an envelope never exists without backing funds
	if err := s.ledger.Debit(ctx, sender, totalAmount); err != nil {
		return nil, fmt.Errorf("%w: failed to debit sender: %v", ErrLedgerUnavailable, err)
	}

	envelope, err := s.CreateEnvelope(ctx, sender, kind, totalAmount, count, note)
	if err != nil {
		// Funds already left the sender's balance; this needs operator
		// attention, not a silent retry
		log.WithFields(log.Fields{
			"sender": sender,
			"amount": totalAmount,
			"error":  err,
		}).Error("Envelope creation failed after debit; sender balance requires reconciliation")
		return nil, fmt.Errorf("envelope creation failed after debit of %.2f: %w", totalAmount, err)
	}

	return envelope, nil
}

func (s *envelopeService) CreateItemEnvelope(ctx context.Context, owner string, count int, note string) (*models.Envelope, error) {
	envelope, err := s.buildEnvelope(owner, models.EnvelopeKindItem, 0, count, note)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.EnvelopeRepository().Create(ctx, envelope); err != nil {
		return nil, fmt.Errorf("failed to persist envelope: %w", err)
	}

	// Load the backing snapshot for the display preview before locking it
	snapshot, err := uow.ItemSnapshotRepository().Get(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load item snapshot: %w", err)
	}

	// Point the snapshot at the new envelope, which locks it against edits.
	// An owner with no stored snapshot has nothing to lock; the envelope
	// still opens and claims against it report ErrEmpty.
	if snapshot != nil {
		if err := uow.ItemSnapshotRepository().Associate(ctx, owner, envelope.ID, envelope.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to associate item snapshot: %w", err)
		}
	}

	uow.EventBus().Publish(events.EnvelopeCreatedEvent{
		EnvelopeID: envelope.ID,
		Sender:     envelope.Sender,
		Kind:       envelope.Kind,
		Count:      envelope.Count,
		Note:       envelope.Note,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Put(envelope)

	// Ephemeral preview copy, display only
	if snapshot != nil {
		var items []*models.ItemStack
		for _, stack := range snapshot.Slots {
			if stack != nil && stack.Quantity > 0 {
				items = append(items, stack.Clone())
			}
		}
		if len(items) > 0 {
			s.previews.Save(envelope.ID, items, envelope.ExpiresAt)
		}
	}

	log.WithFields(log.Fields{
		"envelopeId": envelope.ID,
		"owner":      owner,
		"count":      count,
	}).Info("Created item envelope")

	return envelope, nil
}

func (s *envelopeService) Claim(ctx context.Context, envelopeID, claimant string) (*models.Reward, error) {
	now := time.Now().UnixMilli()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Cheap rejection from cache before touching the row
	if cached := s.cache.Get(envelopeID); cached != nil && !cached.IsValid(now) {
		return nil, ErrInvalid
	}

	// Row lock serializes claims per envelope; the record count below is
	// exact because no two claims against one envelope overlap
	envelope, err := uow.EnvelopeRepository().GetByIDForUpdate(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load envelope %s: %w", envelopeID, err)
	}
	if envelope == nil {
		return nil, ErrNotFound
	}
	s.cache.Put(envelope)

	if !envelope.IsValid(now) {
		return nil, ErrInvalid
	}

	// Fast path only; the record insert below is the authoritative dedup
	claimed, err := uow.ClaimRecordRepository().HasClaimed(ctx, envelopeID, claimant)
	if err != nil {
		return nil, fmt.Errorf("failed to check claim state: %w", err)
	}
	if claimed {
		return nil, ErrAlreadyClaimed
	}

	reward := &models.Reward{EnvelopeID: envelopeID, Claimant: claimant}
	creditPending := false

	if envelope.Kind == models.EnvelopeKindItem {
		item, err := s.drawItem(ctx, uow, envelope)
		if err != nil {
			return nil, err
		}
		reward.Item = item
		reward.Amount = models.ItemClaimAmount
	} else {
		reward.Amount = calculateAmount(envelope)
		if reward.Amount <= 0 {
			return nil, ErrInvalid
		}
		creditPending = true
	}

	record := &models.ClaimRecord{
		ID:            uuid.NewString(),
		EnvelopeID:    envelopeID,
		Claimant:      claimant,
		Amount:        reward.Amount,
		ClaimedAt:     now,
		CreditPending: creditPending,
	}

	if err := uow.ClaimRecordRepository().Create(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateClaim) {
			// A concurrent claim from the same identity won the race
			return nil, ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to insert claim record: %w", err)
	}

	uow.EventBus().Publish(events.EnvelopeClaimedEvent{
		EnvelopeID: envelopeID,
		Sender:     envelope.Sender,
		Claimant:   claimant,
		Kind:       envelope.Kind,
		Amount:     reward.Amount,
		Item:       reward.Item,
	})

	// Completion is recomputed from the store aggregate, not an in-memory
	// counter, so multiple engine instances sharing one store stay correct
	claimedCount, err := uow.ClaimRecordRepository().CountByEnvelope(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims: %w", err)
	}

	completed := claimedCount >= envelope.Count
	if completed {
		if err := uow.EnvelopeRepository().SetClaimed(ctx, envelopeID, true); err != nil {
			return nil, fmt.Errorf("failed to close envelope: %w", err)
		}

		top, err := uow.ClaimRecordRepository().TopClaimant(ctx, envelopeID)
		if err != nil {
			return nil, fmt.Errorf("failed to determine top claimant: %w", err)
		}

		completedEvent := events.EnvelopeCompletedEvent{
			EnvelopeID: envelopeID,
			Sender:     envelope.Sender,
			Kind:       envelope.Kind,
		}
		if top != nil {
			completedEvent.TopClaimant = top.Claimant
			completedEvent.TopAmount = top.Total
		}
		uow.EventBus().Publish(completedEvent)

		// A drained item envelope releases the owner's snapshot
		if envelope.Kind == models.EnvelopeKindItem {
			if err := uow.ItemSnapshotRepository().ClearAssociation(ctx, envelope.Sender); err != nil {
				return nil, fmt.Errorf("failed to clear snapshot association: %w", err)
			}
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	if completed {
		s.cache.MarkClaimed(envelopeID)
		if envelope.Kind == models.EnvelopeKindItem {
			s.previews.Remove(envelopeID)
		}
	}

	// Ledger credit happens after the durable record. A failure here must
	// not undo the claim: the record keeps its pending flag and the
	// reconciliation sweep applies the credit later.
	if creditPending {
		if err := s.ledger.Credit(ctx, claimant, reward.Amount); err != nil {
			log.WithFields(log.Fields{
				"recordId":   record.ID,
				"envelopeId": envelopeID,
				"claimant":   claimant,
				"amount":     reward.Amount,
				"error":      err,
			}).Error("Ledger credit failed after durable claim record; left pending for reconciliation")
		} else {
			s.markCredited(ctx, record.ID)
		}
	}

	log.WithFields(log.Fields{
		"envelopeId": envelopeID,
		"claimant":   claimant,
		"amount":     reward.Amount,
	}).Info("Claim succeeded")

	return reward, nil
}

// drawItem selects a random occupied slot from the sender's snapshot,
// removes one item from it, and persists the updated snapshot
func (s *envelopeService) drawItem(ctx context.Context, uow UnitOfWork, envelope *models.Envelope) (*models.ItemStack, error) {
	snapshot, err := uow.ItemSnapshotRepository().Get(ctx, envelope.Sender)
	if err != nil {
		return nil, fmt.Errorf("failed to load item snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, ErrEmpty
	}

	occupied := snapshot.OccupiedSlots()
	if len(occupied) == 0 {
		return nil, ErrEmpty
	}

	selected := occupied[rand.Intn(len(occupied))]
	stack := snapshot.Slots[selected]

	drawn := stack.Clone()
	drawn.Quantity = 1

	if stack.Quantity > 1 {
		stack.Quantity--
	} else {
		snapshot.Slots[selected] = nil
	}

	if err := uow.ItemSnapshotRepository().Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist item snapshot: %w", err)
	}

	return drawn, nil
}

// markCredited clears the pending flag once the ledger credit applied.
// If this fails the record stays pending and the reconciliation sweep may
// credit again; that incident is logged for manual follow-up.
func (s *envelopeService) markCredited(ctx context.Context, recordID string) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		log.WithField("recordId", recordID).WithError(err).Error("Failed to begin transaction to mark record credited")
		return
	}
	defer uow.Rollback()

	if err := uow.ClaimRecordRepository().MarkCredited(ctx, recordID); err != nil {
		log.WithField("recordId", recordID).WithError(err).Error("Failed to mark record credited; reconciliation may double-credit")
		return
	}
	if err := uow.Commit(); err != nil {
		log.WithField("recordId", recordID).WithError(err).Error("Failed to commit credited flag; reconciliation may double-credit")
	}
}

func (s *envelopeService) DeleteEnvelope(ctx context.Context, id string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.EnvelopeRepository().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete envelope %s: %w", id, err)
	}

	uow.EventBus().Publish(events.EnvelopeDeletedEvent{EnvelopeID: id})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Remove(id)
	s.previews.Remove(id)

	log.WithField("envelopeId", id).Info("Deleted envelope")
	return nil
}

func (s *envelopeService) GetEnvelope(ctx context.Context, id string) (*models.Envelope, error) {
	if envelope := s.cache.Get(id); envelope != nil {
		return envelope, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	envelope, err := uow.EnvelopeRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load envelope %s: %w", id, err)
	}
	if envelope != nil {
		s.cache.Put(envelope)
	}
	return envelope, nil
}

func (s *envelopeService) GetRecords(ctx context.Context, envelopeID string) ([]*models.ClaimRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.ClaimRecordRepository().GetByEnvelope(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load claim records: %w", err)
	}
	return records, nil
}

func (s *envelopeService) GetActiveBySender(ctx context.Context, sender string) ([]*models.Envelope, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	envelopes, err := uow.EnvelopeRepository().GetActiveBySender(ctx, sender, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to load envelopes for sender %s: %w", sender, err)
	}
	return envelopes, nil
}

// buildEnvelope validates inputs and constructs an unsaved envelope
func (s *envelopeService) buildEnvelope(sender string, kind models.EnvelopeKind, totalAmount float64, count int, note string) (*models.Envelope, error) {
	cfg := config.Get()

	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if kind.IsCurrency() {
		if totalAmount <= 0 {
			return nil, fmt.Errorf("total amount must be positive, got %.2f", totalAmount)
		}
		if totalAmount < cfg.MinAmount || totalAmount > cfg.MaxAmount {
			return nil, fmt.Errorf("total amount %.2f outside allowed range [%.2f, %.2f]", totalAmount, cfg.MinAmount, cfg.MaxAmount)
		}
	} else if kind != models.EnvelopeKindItem {
		return nil, fmt.Errorf("unknown envelope kind %q", kind)
	}
	if len(note) > cfg.MaxNoteLength {
		return nil, fmt.Errorf("note exceeds %d characters", cfg.MaxNoteLength)
	}

	now := time.Now().UnixMilli()
	var expiresAt int64
	if cfg.EnvelopeTTLSeconds > 0 {
		expiresAt = now + cfg.EnvelopeTTLSeconds*1000
	}

	return &models.Envelope{
		ID:          uuid.NewString(),
		Sender:      sender,
		Kind:        kind,
		TotalAmount: totalAmount,
		Count:       count,
		Note:        note,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}, nil
}
