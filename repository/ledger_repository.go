package repository

import (
	"context"
	"fmt"

	"redpockets/database"
	"redpockets/models"

	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger account repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger account repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// GetByHolder retrieves an account by holder
func (r *LedgerRepository) GetByHolder(ctx context.Context, holder string) (*models.LedgerAccount, error) {
	query := `
		SELECT holder, balance, created_at, updated_at
		FROM ledger_accounts
		WHERE holder = $1
	`

	var account models.LedgerAccount
	err := r.q.QueryRow(ctx, query, holder).Scan(
		&account.Holder,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger account for %s: %w", holder, err)
	}

	return &account, nil
}

// Create creates a new account with the initial balance
func (r *LedgerRepository) Create(ctx context.Context, holder string, initialBalance float64) (*models.LedgerAccount, error) {
	query := `
		INSERT INTO ledger_accounts (holder, balance)
		VALUES ($1, $2)
		RETURNING holder, balance, created_at, updated_at
	`

	var account models.LedgerAccount
	err := r.q.QueryRow(ctx, query, holder, initialBalance).Scan(
		&account.Holder,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create ledger account for %s: %w", holder, err)
	}

	return &account, nil
}

// AddBalance adds to an account's balance atomically
func (r *LedgerRepository) AddBalance(ctx context.Context, holder string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE ledger_accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE holder = $2
	`

	result, err := r.q.Exec(ctx, query, amount, holder)
	if err != nil {
		return fmt.Errorf("failed to add balance for %s: %w", holder, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger account for %s not found", holder)
	}

	return nil
}

// DeductBalance deducts from an account's balance atomically, failing if
// insufficient funds
func (r *LedgerRepository) DeductBalance(ctx context.Context, holder string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	// Update only if the account holds enough
	query := `
		UPDATE ledger_accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE holder = $2
		  AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, holder)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for %s: %w", holder, err)
	}

	if result.RowsAffected() == 0 {
		// Check whether the account is missing or just short
		account, err := r.GetByHolder(ctx, holder)
		if err != nil {
			return fmt.Errorf("failed to check ledger account: %w", err)
		}
		if account == nil {
			return fmt.Errorf("ledger account for %s not found", holder)
		}
		return fmt.Errorf("insufficient balance: have %.2f, need %.2f", account.Balance, amount)
	}

	return nil
}
