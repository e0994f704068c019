package repository

import (
	"context"
	"fmt"

	"redpockets/database"
	"redpockets/events"
	"redpockets/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// queryable is satisfied by both *pgxpool.Pool and pgx.Tx, letting the same
// repository code run against the pool or inside a transaction
type queryable interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	envelopeRepo     service.EnvelopeRepository
	claimRecordRepo  service.ClaimRecordRepository
	itemSnapshotRepo service.ItemSnapshotRepository
	ledgerRepo       service.LedgerRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.envelopeRepo = newEnvelopeRepositoryWithTx(tx)
	u.claimRecordRepo = newClaimRecordRepositoryWithTx(tx)
	u.itemSnapshotRepo = newItemSnapshotRepositoryWithTx(tx)
	u.ledgerRepo = newLedgerRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// EnvelopeRepository returns the envelope repository for this unit of work
func (u *unitOfWork) EnvelopeRepository() service.EnvelopeRepository {
	if u.envelopeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.envelopeRepo
}

// ClaimRecordRepository returns the claim record repository for this unit of work
func (u *unitOfWork) ClaimRecordRepository() service.ClaimRecordRepository {
	if u.claimRecordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.claimRecordRepo
}

// ItemSnapshotRepository returns the item snapshot repository for this unit of work
func (u *unitOfWork) ItemSnapshotRepository() service.ItemSnapshotRepository {
	if u.itemSnapshotRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.itemSnapshotRepo
}

// LedgerRepository returns the ledger account repository for this unit of work
func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
