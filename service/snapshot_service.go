package service

import (
	"context"
	"fmt"
	"time"

	"redpockets/models"
)

type snapshotService struct {
	uowFactory UnitOfWorkFactory
}

// NewSnapshotService creates a new item snapshot editing service
func NewSnapshotService(uowFactory UnitOfWorkFactory) SnapshotService {
	return &snapshotService{uowFactory: uowFactory}
}

// SaveItems stores the owner's edited slots. While the snapshot is
// associated with an open, unexpired envelope the edit surface is locked;
// only the engine may mutate it then (to remove drawn items).
func (s *snapshotService) SaveItems(ctx context.Context, owner string, slots [models.SnapshotSlots]*models.ItemStack) error {
	now := time.Now().UnixMilli()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.ItemSnapshotRepository().Get(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to load item snapshot: %w", err)
	}
	if existing != nil && existing.IsLocked(now) {
		return ErrSnapshotLocked
	}

	snapshot := &models.ItemSnapshot{Owner: owner, Slots: slots}
	if existing != nil {
		snapshot.EnvelopeID = existing.EnvelopeID
		snapshot.EnvelopeExpiresAt = existing.EnvelopeExpiresAt
	}

	if err := uow.ItemSnapshotRepository().Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save item snapshot: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *snapshotService) LoadItems(ctx context.Context, owner string) (*models.ItemSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	snapshot, err := uow.ItemSnapshotRepository().Get(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load item snapshot: %w", err)
	}
	return snapshot, nil
}

func (s *snapshotService) IsLocked(ctx context.Context, owner string) (bool, error) {
	snapshot, err := s.LoadItems(ctx, owner)
	if err != nil {
		return false, err
	}
	if snapshot == nil {
		return false, nil
	}
	return snapshot.IsLocked(time.Now().UnixMilli()), nil
}

func (s *snapshotService) ClearAssociation(ctx context.Context, owner string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ItemSnapshotRepository().ClearAssociation(ctx, owner); err != nil {
		return fmt.Errorf("failed to clear snapshot association: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *snapshotService) DeleteItems(ctx context.Context, owner string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ItemSnapshotRepository().Delete(ctx, owner); err != nil {
		return fmt.Errorf("failed to delete item snapshot: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
