package service

import (
	"context"
	"fmt"

	"redpockets/config"
	"redpockets/models"
)

// ledgerService is the built-in Postgres-backed implementation of the
// Ledger adapter contract. Deployments with an external balance service
// substitute their own Ledger implementation at wiring time.
type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates the default database-backed ledger
func NewLedgerService(uowFactory UnitOfWorkFactory) Ledger {
	return &ledgerService{uowFactory: uowFactory}
}

func (s *ledgerService) HasSufficientBalance(ctx context.Context, actor string, amount float64) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := s.getOrCreateAccount(ctx, uow, actor)
	if err != nil {
		return false, err
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account.Balance >= amount, nil
}

func (s *ledgerService) Debit(ctx context.Context, actor string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %.2f", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.getOrCreateAccount(ctx, uow, actor); err != nil {
		return err
	}

	if err := uow.LedgerRepository().DeductBalance(ctx, actor, amount); err != nil {
		return fmt.Errorf("failed to debit %s: %w", actor, err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *ledgerService) Credit(ctx context.Context, actor string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %.2f", amount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.getOrCreateAccount(ctx, uow, actor); err != nil {
		return err
	}

	if err := uow.LedgerRepository().AddBalance(ctx, actor, amount); err != nil {
		return fmt.Errorf("failed to credit %s: %w", actor, err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// getOrCreateAccount retrieves an account, creating it with the configured
// starting balance when the holder is new
func (s *ledgerService) getOrCreateAccount(ctx context.Context, uow UnitOfWork, holder string) (*models.LedgerAccount, error) {
	existing, err := uow.LedgerRepository().GetByHolder(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger account for %s: %w", holder, err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := uow.LedgerRepository().Create(ctx, holder, config.Get().StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger account for %s: %w", holder, err)
	}
	return created, nil
}
